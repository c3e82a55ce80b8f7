package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/graphs"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var baseEnv = []string{
	"GRAPH_ONTOLOGY=https://graph.example.com/ontology",
	"GRAPH_SCHULART=https://graph.example.com/schulart",
	"GRAPH_SCHULFACH=https://graph.example.com/schulfach",
}

func TestLoad_Environment(t *testing.T) {
	env := append([]string{}, baseEnv...)
	env = append(env,
		"SPARQL_ENDPOINT=https://sparql.example.com/sparql",
		"GRAPH_STATE_SN=https://graph.example.com/sn",
		"HOME=/root",
		"GRAPH_STATE_BE=https://graph.example.com/be",
		"GRAPH_STATE_XX=",
	)

	cfg, err := Load(Options{Environ: env})
	require.NoError(t, err)

	assert.Equal(t, "https://sparql.example.com/sparql", cfg.Endpoint)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, []graphs.StateGraph{
		{Code: "SN", URI: "https://graph.example.com/sn"},
		{Code: "BE", URI: "https://graph.example.com/be"},
	}, cfg.States)

	p, err := cfg.Partition()
	require.NoError(t, err)
	assert.Len(t, p.AllGraphs(), 5)
}

func TestLoad_MissingGraphReportedByPartition(t *testing.T) {
	cfg, err := Load(Options{Environ: baseEnv[:2]})
	require.NoError(t, err)

	_, err = cfg.Partition()

	assert.True(t, apperr.Is(err, apperr.CodeMissingConfiguration))
	assert.Contains(t, err.Error(), graphs.KeySchulfach)
}

func TestLoad_Port(t *testing.T) {
	cases := []struct {
		value string
		want  int
		ok    bool
	}{
		{"8080", 8080, true},
		{" 1 ", 1, true},
		{"65535", 65535, true},
		{"0", 0, false},
		{"65536", 0, false},
		{"http", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			cfg, err := Load(Options{Environ: []string{"PORT=" + tc.value}})
			if !tc.ok {
				require.Error(t, err)
				assert.Equal(t, `Invalid PORT value: "`+tc.value+`". Must be a number between 1 and 65535.`, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Port)
		})
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", `SPARQL_ENDPOINT=https://from-file.example.com/sparql
GRAPH_STATE_TH=https://graph.example.com/th
GRAPH_STATE_BY=https://graph.example.com/by
LOG_LEVEL=debug
`)
	env := []string{
		"SPARQL_ENDPOINT=https://from-env.example.com/sparql",
		"GRAPH_STATE_SN=https://graph.example.com/sn",
	}

	cfg, err := Load(Options{EnvFile: envFile, Environ: env})
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.com/sparql", cfg.Endpoint)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, []graphs.StateGraph{
		{Code: "SN", URI: "https://graph.example.com/sn"},
		{Code: "BY", URI: "https://graph.example.com/by"},
		{Code: "TH", URI: "https://graph.example.com/th"},
	}, cfg.States)
}

func TestLoad_ExplicitEnvFileMustExist(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env"), Environ: []string{}})

	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "memq.yaml", `sparql_endpoint: https://sparql.example.com/sparql
port: 4000
journal: /tmp/memq.db
graphs:
  ontology: https://graph.example.com/ontology
  schulart: https://graph.example.com/schulart
  schulfach: https://graph.example.com/schulfach
  states:
    - code: SN
      uri: https://graph.example.com/sn
`)
	env := []string{
		"GRAPH_STATE_BE=https://graph.example.com/be",
		"GRAPH_STATE_SN=https://graph.example.com/sn2",
		"PORT=5000",
	}

	cfg, err := Load(Options{ConfigFile: path, Environ: env})
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "/tmp/memq.db", cfg.Journal)
	assert.Equal(t, "https://graph.example.com/ontology", cfg.Graphs.Ontology)

	p, err := cfg.Partition()
	require.NoError(t, err)
	states := p.States()
	require.Len(t, states, 2)
	assert.Equal(t, graphs.StateGraph{Code: "SN", URI: "https://graph.example.com/sn2"}, states[0])
	assert.Equal(t, "BE", states[1].Code)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, "memq.cue", `sparql_endpoint: "https://sparql.example.com/sparql"
port: 3100
log_level: "warn"
graphs: {
	ontology:  "https://graph.example.com/ontology"
	schulart:  "https://graph.example.com/schulart"
	schulfach: "https://graph.example.com/schulfach"
	states: [{code: "BE", uri: "https://graph.example.com/be"}]
}
`)

	cfg, err := Load(Options{ConfigFile: path, Environ: []string{}})
	require.NoError(t, err)

	assert.Equal(t, 3100, cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, []graphs.StateGraph{{Code: "BE", URI: "https://graph.example.com/be"}}, cfg.States)
}

func TestLoad_CUESchemaViolations(t *testing.T) {
	cases := map[string]string{
		"port out of range": `port: 70000`,
		"bad log level":     `log_level: "trace"`,
		"unknown field":     `endpoint: "https://sparql.example.com"`,
		"lowercase code":    `graphs: states: [{code: "sn", uri: "https://graph.example.com/sn"}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "memq.cue", src)

			_, err := Load(Options{ConfigFile: path, Environ: []string{}})

			assert.Error(t, err)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "memq.toml", "port = 1")

	_, err := Load(Options{ConfigFile: path, Environ: []string{}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&Config{}).Level())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "ERROR"}).Level())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).Level())
}
