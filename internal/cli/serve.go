package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resumerag/internal/mcp"
	"resumerag/internal/server"
)

// Version is reported to MCP clients.
var Version = "dev"

var (
	serveAddr      string
	serveEphemeral bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API (documents, answer, screen, compare) and the MCP tools
over streamable HTTP at /mcp.

Examples:
  resumerag serve --addr :8080
  resumerag serve --ephemeral     # keep the collection in memory only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, serveEphemeral)
		if err != nil {
			return err
		}
		defer a.Close()

		tools, err := mcp.NewServer(a.service, Version)
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = GetConfig().Server.Addr
		}
		router := server.NewRouter(server.RouterConfig{
			Service: a.service,
			Logger:  logger,
			MCP:     tools.HTTPHandler(),
		})
		return server.Serve(ctx, addr, router, logger)
	},
}

var mcpEphemeral bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing list_documents, ingest_text,
answer, screen and compare. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, mcpEphemeral)
		if err != nil {
			return err
		}
		defer a.Close()

		tools, err := mcp.NewServer(a.service, Version)
		if err != nil {
			return err
		}
		logger.Info("mcp server running on stdio", "collection", a.path)
		return tools.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveEphemeral, "ephemeral", false, "keep the collection in memory")
	mcpCmd.Flags().BoolVar(&mcpEphemeral, "ephemeral", false, "keep the collection in memory")
}
