package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vgoehler/mem-mcp/internal/lehrplan"
	"github.com/vgoehler/mem-mcp/internal/tools"
)

// OperationResult is the JSON payload of an operation command.
type OperationResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// NewOperationCommands creates one command per named operation.
func NewOperationCommands(opts *RootOptions) []*cobra.Command {
	return []*cobra.Command{
		newBundeslaenderCommand(opts),
		newSchulfaecherCommand(opts),
		newSchulartenCommand(opts),
		newLehrplaeneCommand(opts),
		newTreeCommand(opts),
		newChildrenCommand(opts),
		newSearchCommand(opts),
		newQueryCommand(opts),
	}
}

type operation func(ctx context.Context, svc *tools.Service) (string, error)

func runOperation(opts *RootOptions, cmd *cobra.Command, tool string, op operation) error {
	f := opts.formatter(cmd)

	a, err := opts.open(cmd, true)
	if err != nil {
		return f.Fail(err)
	}
	defer a.Close()

	out, err := op(cmd.Context(), a.service)
	if err != nil {
		return f.Fail(err)
	}
	if opts.Format == "json" {
		return f.Success(OperationResult{Tool: tool, Output: out})
	}
	return f.Success(out)
}

func newBundeslaenderCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bundeslaender",
		Short: "List federal states in the ontology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(opts, cmd, tools.ToolListBundeslaender, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.ListBundeslaender(ctx)
			})
		},
	}
}

func newSchulfaecherCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schulfaecher <bundesland>",
		Short: "List school subjects of a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(opts, cmd, tools.ToolListSchulfaecher, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.ListSchulfaecher(ctx, args[0])
			})
		},
	}
}

func newSchulartenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schularten <bundesland>",
		Short: "List school types of a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(opts, cmd, tools.ToolListSchularten, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.ListSchularten(ctx, args[0])
			})
		},
	}
}

func newLehrplaeneCommand(opts *RootOptions) *cobra.Command {
	var (
		schulfach string
		schulart  string
		grade     int
	)

	cmd := &cobra.Command{
		Use:   "lehrplaene <bundesland>",
		Short: "Find curricula of a state",
		Long: `Find curricula (Lehrpläne) of a state, optionally filtered by subject,
school type and grade.

Examples:
  memq lehrplaene SN
  memq lehrplaene Bayern --schulfach Biologie --jahrgangsstufe 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tools.FindParams{Bundesland: args[0], Schulfach: schulfach, Schulart: schulart}
			if cmd.Flags().Changed("jahrgangsstufe") {
				p.Jahrgangsstufe = &grade
			}
			return runOperation(opts, cmd, tools.ToolFindLehrplaene, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.FindLehrplaene(ctx, p)
			})
		},
	}

	cmd.Flags().StringVar(&schulfach, "schulfach", "", "subject name in German (e.g. Biologie)")
	cmd.Flags().StringVar(&schulart, "schulart", "", "school type name (e.g. Gymnasium)")
	cmd.Flags().IntVar(&grade, "jahrgangsstufe", 0, fmt.Sprintf("grade level (%d-%d)", tools.MinGrade, tools.MaxGrade))

	return cmd
}

func newTreeCommand(opts *RootOptions) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree <lehrplan-uri>",
		Short: "Show the hierarchy below a curriculum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(opts, cmd, tools.ToolLehrplanTree, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.LehrplanTree(ctx, args[0], depth)
			})
		},
	}

	cmd.Flags().IntVar(&depth, "depth", lehrplan.DefaultDepth,
		fmt.Sprintf("levels to retrieve (%d-%d)", lehrplan.MinDepth, lehrplan.MaxDepth))

	return cmd
}

func newChildrenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "children <node-uri>",
		Short: "List the direct parts of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(opts, cmd, tools.ToolChildren, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.Children(ctx, args[0])
			})
		},
	}
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	var p tools.SearchParams

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Full-text prefix search over node labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Query = args[0]
			return runOperation(opts, cmd, tools.ToolSearch, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.Search(ctx, p)
			})
		},
	}

	cmd.Flags().StringVar(&p.Bundesland, "bundesland", "", "limit to a state (code or name)")
	cmd.Flags().StringVar(&p.Schulfach, "schulfach", "", "limit to a subject (requires --bundesland)")

	return cmd
}

func newQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query [file]",
		Short: "Run a raw SPARQL query",
		Long: `Run a raw SPARQL SELECT query, read from a file or from stdin
when the file is omitted or "-". The query must name its graphs in FROM
clauses; "memq tools" lists the available graphs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQuery(cmd, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read query", err)
			}
			return runOperation(opts, cmd, tools.ToolSPARQLQuery, func(ctx context.Context, svc *tools.Service) (string, error) {
				return svc.SPARQLQuery(ctx, text)
			})
		},
	}
}

func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}
