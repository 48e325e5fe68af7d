// demo-provider is a small MCP tool server for exercising the proxy locally:
// register a few instances under different names, grant them to a caller in
// the proxy's policy, and every tool below becomes routable through MCPCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var flags struct {
	name string
	addr string
}

var rootCmd = &cobra.Command{
	Use:   "demo-provider",
	Short: "Demo MCP tool server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flags.name, "name", "demo", "server name reported during the MCP handshake")
	rootCmd.Flags().StringVar(&flags.addr, "addr", ":9004", "listen address")
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s := server.NewMCPServer(flags.name, "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo the input message."),
			mcp.WithString("message", mcp.Required(), mcp.Description("message to echo back")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			message, err := req.RequireString("message")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			logger.Info("echoing message", "message", message)
			return mcp.NewToolResultText("Echo: " + message), nil
		},
	)

	s.AddTool(
		mcp.NewTool("update_battle_process",
			mcp.WithDescription("Record an intermediate progress event for a battle session."),
			mcp.WithString("battle_id", mcp.Required(), mcp.Description("battle session identifier")),
			mcp.WithString("message", mcp.Required(), mcp.Description("human-readable description of what happened")),
			mcp.WithString("reported_by", mcp.Required(), mcp.Description("role or agent reporting the event")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			battleID, err := req.RequireString("battle_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			message, err := req.RequireString("message")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			reportedBy, err := req.RequireString("reported_by")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			logger.Info("battle progress", "battle_id", battleID, "message", message, "reported_by", reportedBy)
			return mcp.NewToolResultText(fmt.Sprintf("recorded update for battle %s", battleID)), nil
		},
	)

	logger.Info("demo provider listening", "name", flags.name, "addr", flags.addr)
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true)).Start(flags.addr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
