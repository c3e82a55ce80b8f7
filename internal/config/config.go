// Package config assembles memq settings from a .env file, an optional YAML
// or CUE config file, and the process environment.
//
// Precedence, lowest first: config file, .env file, environment. A .env
// entry never overrides a variable already present in the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vgoehler/mem-mcp/internal/graphs"
)

// Environment keys beyond the graph keys owned by package graphs.
const (
	KeyEndpoint = "SPARQL_ENDPOINT"
	KeyPort     = "PORT"
	KeyLogLevel = "LOG_LEVEL"
	KeyJournal  = "MEMQ_JOURNAL"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = 3000

// DefaultEnvFile is read when Options.EnvFile is empty. Its absence is not
// an error.
const DefaultEnvFile = ".env"

//go:embed schema.cue
var schemaSource string

// Config is the resolved configuration.
type Config struct {
	Endpoint string
	Port     int
	LogLevel string
	Journal  string
	Graphs   graphs.Required
	States   []graphs.StateGraph
}

// Options controls where Load looks.
type Options struct {
	// EnvFile is the dotenv file; DefaultEnvFile when empty.
	EnvFile string

	// ConfigFile is an optional .yaml, .yml or .cue file.
	ConfigFile string

	// Environ replaces os.Environ() when non-nil.
	Environ []string
}

// fileConfig mirrors the config file layout. The json tags drive CUE
// decoding.
type fileConfig struct {
	Endpoint string    `yaml:"sparql_endpoint" json:"sparql_endpoint"`
	Port     int       `yaml:"port" json:"port"`
	LogLevel string    `yaml:"log_level" json:"log_level"`
	Journal  string    `yaml:"journal" json:"journal"`
	Graphs   fileGraph `yaml:"graphs" json:"graphs"`
}

type fileGraph struct {
	Ontology  string      `yaml:"ontology" json:"ontology"`
	Schulart  string      `yaml:"schulart" json:"schulart"`
	Schulfach string      `yaml:"schulfach" json:"schulfach"`
	States    []fileState `yaml:"states" json:"states"`
}

type fileState struct {
	Code string `yaml:"code" json:"code"`
	URI  string `yaml:"uri" json:"uri"`
}

// Load resolves the configuration. Required graphs are not checked here;
// Partition reports them as MISSING_CONFIGURATION.
func Load(opts Options) (*Config, error) {
	cfg := &Config{Port: DefaultPort}

	if opts.ConfigFile != "" {
		fc, err := readFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.apply(fc)
	}

	env, err := environment(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.overlay(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Partition builds the graph partition.
func (c *Config) Partition() (*graphs.Partition, error) {
	return graphs.New(c.Graphs, c.States)
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr is the listen address for the HTTP host.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func (c *Config) apply(fc *fileConfig) {
	c.Endpoint = fc.Endpoint
	if fc.Port != 0 {
		c.Port = fc.Port
	}
	c.LogLevel = fc.LogLevel
	c.Journal = fc.Journal
	c.Graphs = graphs.Required{
		Ontology:  fc.Graphs.Ontology,
		Schulart:  fc.Graphs.Schulart,
		Schulfach: fc.Graphs.Schulfach,
	}
	for _, s := range fc.Graphs.States {
		c.States = append(c.States, graphs.StateGraph{Code: s.Code, URI: s.URI})
	}
}

// overlay applies ordered KEY=VALUE pairs. Empty values leave file values
// in place.
func (c *Config) overlay(env []kv) error {
	for _, e := range env {
		if e.value == "" {
			continue
		}
		switch {
		case e.key == KeyEndpoint:
			c.Endpoint = e.value
		case e.key == KeyPort:
			port, err := ParsePort(e.value)
			if err != nil {
				return err
			}
			c.Port = port
		case e.key == KeyLogLevel:
			c.LogLevel = e.value
		case e.key == KeyJournal:
			c.Journal = e.value
		case e.key == graphs.KeyOntology:
			c.Graphs.Ontology = e.value
		case e.key == graphs.KeySchulart:
			c.Graphs.Schulart = e.value
		case e.key == graphs.KeySchulfach:
			c.Graphs.Schulfach = e.value
		case strings.HasPrefix(e.key, graphs.StateKeyPrefix):
			c.States = append(c.States, graphs.StateGraph{
				Code: strings.TrimPrefix(e.key, graphs.StateKeyPrefix),
				URI:  e.value,
			})
		}
	}
	return nil
}

// ParsePort validates a PORT value.
func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("Invalid PORT value: %q. Must be a number between 1 and 65535.", raw)
	}
	return port, nil
}

type kv struct {
	key, value string
}

// environment returns the process environment in its own order, followed
// by .env entries the environment does not already define, sorted by key.
func environment(opts Options) ([]kv, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	var out []kv
	seen := make(map[string]bool, len(environ))
	for _, line := range environ {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out = append(out, kv{key, value})
		seen[key] = true
	}

	path := opts.EnvFile
	if path == "" {
		path = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(path)
	if err != nil {
		if opts.EnvFile == "" && errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	keys := make([]string, 0, len(dotenv))
	for k := range dotenv {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, kv{k, dotenv[k]})
	}
	return out, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if fc.Port != 0 && (fc.Port < 1 || fc.Port > 65535) {
			return nil, fmt.Errorf("Invalid PORT value: \"%d\". Must be a number between 1 and 65535.", fc.Port)
		}
		return &fc, nil
	case ".cue":
		return decodeCUE(path, data)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", ext)
	}
}

// decodeCUE checks data against the embedded #Config schema and decodes it.
func decodeCUE(path string, data []byte) (*fileConfig, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &fc, nil
}
