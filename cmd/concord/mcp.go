package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/concord/internal/cli"
	mcpadapter "github.com/aretw0/concord/pkg/adapters/mcp"
	"github.com/aretw0/concord/pkg/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the negotiation engine as an MCP server",
	Long: `MCP serves the engine to Model Context Protocol clients, either over
stdio (the default, for editor integrations) or over SSE on a port.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, debug, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx, cancel := cli.SignalContext()
		defer cancel()

		// Stdio transport owns stdout, so logs stay off unless --debug.
		logger := cli.NewLogger(debug)
		var hooks domain.LifecycleHooks
		if debug {
			hooks = cli.DebugHooks(logger)
		}
		engine, cleanup, err := cli.NewEngine(cfg, logger, hooks)
		if err != nil {
			return err
		}
		defer cleanup()

		server := mcpadapter.NewServer(engine)
		switch transport {
		case "stdio":
			return server.ServeStdio()
		case "sse":
			return server.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8765, "Port for the sse transport")
	rootCmd.AddCommand(mcpCmd)
}
