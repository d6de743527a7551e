package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/tldwbot/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server for YouTube summaries",
	Long: `Run a Model Context Protocol (MCP) server that exposes the bot's pipeline as tools.

Tools:
- get_youtube_metadata: video metadata and caption availability
- get_youtube_transcript: subtitles as plain text
- summarize_youtube_video: summary of a video as markdown
- ask_youtube_video: answer a question about a video

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport
  tldwbot mcp

  # Run MCP server with HTTP transport on port 8080
  tldwbot mcp --transport=http --port=8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// stdio carries the protocol, so logs only go to the log file
		logger, logFile, err := internal.SetupLogging(config, transport == "http")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			logger = internal.ConsoleLogger(slog.LevelWarn)
		} else {
			defer logFile.Close()
		}

		app := internal.NewApp(cmd.Context(), config,
			internal.WithLogger(logger),
			internal.WithUI(internal.SilentUIManager()),
		)
		defer app.Close()

		mcpServer := internal.NewMCPServer(app, currentBuild().Version)

		if transport == "http" {
			logger.Info("starting MCP server", slog.String("transport", transport), slog.Int("port", port))
		}

		// Start the server (this will block until context is cancelled)
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	rootCmd.AddCommand(mcpCmd)
}
