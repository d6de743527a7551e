package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtzll/tldwbot/internal"
)

var (
	config *internal.Config
)

// rootCmd runs the Telegram bot
var rootCmd = &cobra.Command{
	Use:   "tldwbot",
	Short: "Telegram bot that summarizes YouTube videos",
	Long: `tldwbot is a Telegram bot for YouTube videos.

Send it a link and it fetches the video's subtitles, summarizes them with
a language model and answers follow-up questions about the video.

Running tldwbot without a subcommand starts the bot. The other commands
run the same pipeline once from the terminal.`,
	Example: `  # Start the bot
  TELEGRAM_BOT_TOKEN=... OPENAI_API_KEY=... tldwbot

  # Use an OpenAI compatible endpoint
  DEEPSEEK_API_KEY=... DEEPSEEK_API_BASE=https://api.deepseek.com DEEPSEEK_API_MODEL=deepseek-chat tldwbot

  # Summarize a video in the terminal
  tldwbot summarize "https://youtu.be/tAP1eZYEuKA"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateTelegramRequirements(config); err != nil {
			return err
		}

		logger, logFile, err := internal.SetupLogging(config, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, logging to stderr only\n", err)
			logger = internal.ConsoleLogger(slog.LevelInfo)
		} else {
			defer logFile.Close()
		}
		slog.SetDefault(logger)

		requests, err := internal.OpenRequestLog(config.LogDir)
		if err != nil {
			logger.Warn("request log disabled", slog.Any("error", err))
		}
		defer requests.Close()

		ctx := cmd.Context()
		app := internal.NewApp(ctx, config,
			internal.WithLogger(logger),
			internal.WithUI(internal.SilentUIManager()),
		)
		defer app.Close()

		api, err := internal.NewTelegramAPI(config, logger)
		if err != nil {
			return err
		}

		logger.Info("starting bot",
			slog.String("provider", config.LLMProvider),
			slog.String("model", config.LLMModel),
			slog.Any("languages", config.Languages),
			slog.Bool("translate", config.Translate),
			slog.Bool("proxy", config.ProxyURL != ""))

		return internal.NewBot(api, app, requests).Run(ctx)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// SIGINT and SIGTERM stop polling; the bot then gives messages in flight
	// a grace period before cancelling them
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize configuration with Viper
	config = internal.InitConfig()

	// Ensure XDG directories exist
	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	// Ensure default config exists in XDG config directory
	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	// Ensure default prompts exist in XDG config directory
	if err := internal.EnsureDefaultPrompts(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompts: %v\n", err)
	}

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress and status output")
}
