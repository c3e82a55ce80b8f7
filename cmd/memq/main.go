// Command memq queries the MEM Lehrplan ontology and serves the same
// operations as MCP tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vgoehler/mem-mcp/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
