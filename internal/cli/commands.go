package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/config"
	"github.com/vgoehler/mem-mcp/internal/journal"
	"github.com/vgoehler/mem-mcp/internal/mcpserver"
	"github.com/vgoehler/mem-mcp/internal/tools"
)

// NewToolsCommand lists the operation catalog as MCP clients see it.
func NewToolsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the operations and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			a, err := opts.open(cmd, false)
			if err != nil {
				return f.Fail(err)
			}
			defer a.Close()

			catalog := a.service.Catalog()
			if opts.Format == "json" {
				return f.Success(catalog)
			}
			return f.Success(renderCatalog(catalog))
		},
	}
}

func renderCatalog(catalog []tools.Tool) string {
	var b strings.Builder
	for i, t := range catalog {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", t.Name)
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		for _, p := range t.Params {
			attrs := []string{string(p.Kind)}
			if p.Required {
				attrs = append(attrs, "required")
			}
			if p.Min != 0 || p.Max != 0 {
				attrs = append(attrs, fmt.Sprintf("%d-%d", p.Min, p.Max))
			}
			if p.Default != 0 {
				attrs = append(attrs, fmt.Sprintf("default %d", p.Default))
			}
			fmt.Fprintf(&b, "  - %s (%s): %s\n", p.Name, strings.Join(attrs, ", "), p.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewServeCommand runs the MCP server over streamable HTTP.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operations as MCP tools over HTTP",
		Long: `Serve the operations as MCP tools on ` + mcpserver.MCPPath + ` using the
streamable HTTP transport. GET /healthz answers "ok".

The server stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			if cmd.Flags().Changed("port") {
				if _, err := config.ParsePort(strconv.Itoa(port)); err != nil {
					return f.Fail(err)
				}
			}

			a, err := opts.open(cmd, true)
			if err != nil {
				return f.Fail(err)
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info(mcpserver.Name+" starting",
				"port", a.cfg.Port,
				"endpoint", a.cfg.Endpoint,
				"infrastructure_graphs", len(a.partition.Infrastructure()),
				"state_graphs", len(a.partition.States()),
				"journal", a.cfg.Journal,
			)

			srv := mcpserver.New(a.service, a.logger)
			if err := srv.Run(ctx, a.cfg.Addr()); err != nil {
				return WrapExitError(ExitCommandError, "server failed", err)
			}
			a.logger.Info(mcpserver.Name + " stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, fmt.Sprintf("listen port (default $%s or %d)", config.KeyPort, config.DefaultPort))

	return cmd
}

// NewHistoryCommand prints the most recent journaled queries.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed queries",
		Long: `Show the most recent queries recorded in the query journal, newest
first. Requires ` + config.KeyJournal + ` (or "journal" in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			cfg, err := opts.loadConfig()
			if err != nil {
				return f.Fail(err)
			}
			if cfg.Journal == "" {
				return f.Fail(apperr.MissingConfiguration(config.KeyJournal))
			}

			j, err := journal.Open(cfg.Journal)
			if err != nil {
				return f.Fail(err)
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return f.Fail(err)
			}
			if opts.Format == "json" {
				return f.Success(entries)
			}
			return f.Success(renderHistory(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", journal.DefaultRecent, "number of entries to show")

	return cmd
}

func renderHistory(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No queries recorded."
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tROWS\tSTATUS\tHASH\tID")
	for _, e := range entries {
		status := "ok"
		if e.ErrorCode != "" {
			status = e.ErrorCode
		}
		hash := e.QueryHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.StartedAt.Format(time.RFC3339), e.Duration, e.Rows, status, hash, e.ID)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// ValidateResult summarizes a checked configuration.
type ValidateResult struct {
	Endpoint       string   `json:"endpoint"`
	Port           int      `json:"port"`
	LogLevel       string   `json:"log_level"`
	Infrastructure []string `json:"infrastructure_graphs"`
	States         []string `json:"states"`
	Journal        string   `json:"journal,omitempty"`
}

// NewValidateCommand checks configuration without contacting the endpoint.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and graph setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			cfg, err := opts.loadConfig()
			if err != nil {
				return f.Fail(err)
			}
			if cfg.Endpoint == "" {
				return f.Fail(apperr.MissingConfiguration(config.KeyEndpoint))
			}
			partition, err := cfg.Partition()
			if err != nil {
				return f.Fail(err)
			}

			result := ValidateResult{
				Endpoint:       cfg.Endpoint,
				Port:           cfg.Port,
				LogLevel:       cfg.Level().String(),
				Infrastructure: partition.Infrastructure(),
				States:         []string{},
				Journal:        cfg.Journal,
			}
			for _, s := range partition.States() {
				result.States = append(result.States, s.Code)
			}

			if opts.Format == "json" {
				return f.Success(result)
			}
			return f.Success(renderValidate(result))
		},
	}
}

func renderValidate(r ValidateResult) string {
	journalPath := r.Journal
	if journalPath == "" {
		journalPath = "(disabled)"
	}
	states := strings.Join(r.States, ", ")
	if states == "" {
		states = "(none)"
	}

	var b strings.Builder
	fmt.Fprintln(&b, "✓ Configuration valid")
	fmt.Fprintf(&b, "  endpoint: %s\n", r.Endpoint)
	fmt.Fprintf(&b, "  port:     %d\n", r.Port)
	fmt.Fprintf(&b, "  logging:  %s\n", r.LogLevel)
	fmt.Fprintf(&b, "  graphs:   %d infrastructure, %d state (%s)\n", len(r.Infrastructure), len(r.States), states)
	fmt.Fprintf(&b, "  journal:  %s", journalPath)
	return b.String()
}
