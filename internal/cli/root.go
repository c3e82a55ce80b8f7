// Package cli implements the memq command line: one subcommand per
// operation plus the MCP server, tool catalog, query history,
// configuration check and scenario runner.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vgoehler/mem-mcp/internal/sparql"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	EnvFile    string
	ConfigFile string

	// Querier replaces the HTTP client (for testing).
	Querier sparql.Querier

	// Environ replaces os.Environ() (for testing).
	Environ []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the memq CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, so tests
// can inject a querier and environment.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memq",
		Short: "memq - query the MEM Lehrplan ontology",
		Long: `Curated queries over the German curriculum (Lehrplan) ontology.

Every command runs one named operation against the configured SPARQL
endpoint; "memq serve" exposes the same operations as MCP tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default .env)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (.yaml, .yml or .cue)")

	for _, sub := range NewOperationCommands(opts) {
		cmd.AddCommand(sub)
	}
	cmd.AddCommand(NewToolsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
