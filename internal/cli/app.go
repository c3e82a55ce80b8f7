package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/bundesland"
	"github.com/vgoehler/mem-mcp/internal/config"
	"github.com/vgoehler/mem-mcp/internal/graphs"
	"github.com/vgoehler/mem-mcp/internal/journal"
	"github.com/vgoehler/mem-mcp/internal/sparql"
	"github.com/vgoehler/mem-mcp/internal/tools"
)

// app is the wired service for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	partition *graphs.Partition
	service   *tools.Service
	journal   *journal.Journal
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		EnvFile:    o.EnvFile,
		ConfigFile: o.ConfigFile,
		Environ:    o.Environ,
	})
}

// newLogger writes text logs to stderr. --verbose forces debug; otherwise
// LOG_LEVEL applies.
func (o *RootOptions) newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// open loads configuration and wires the service. With needEndpoint false
// a missing SPARQL_ENDPOINT is tolerated and the service has no querier.
func (o *RootOptions) open(cmd *cobra.Command, needEndpoint bool) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.newLogger(cmd, cfg)

	partition, err := cfg.Partition()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, partition: partition}

	var q sparql.Querier
	switch {
	case o.Querier != nil:
		q = o.Querier
	case cfg.Endpoint != "":
		client, err := sparql.NewClient(cfg.Endpoint, sparql.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		q = client
	case needEndpoint:
		return nil, apperr.MissingConfiguration(config.KeyEndpoint)
	}

	if q != nil && cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return nil, err
		}
		a.journal = j
		q = journal.NewRecorder(q, j, journal.WithLogger(logger))
		logger.Debug("journal enabled", "path", cfg.Journal)
	}

	a.service = tools.NewService(q, partition, bundesland.New(), logger)
	return a, nil
}

func (a *app) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}
