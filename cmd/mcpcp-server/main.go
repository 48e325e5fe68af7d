package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "version"

var rootCmd = &cobra.Command{
	Use:     "mcpcp-server",
	Short:   "Capability-scoped MCP aggregation proxy",
	Long:    `MCPCP fronts a fleet of MCP tool servers behind one endpoint, showing each authenticated caller only the tools its policy grants and routing calls to the right backend.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
