package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/tldwbot/internal"
)

// askCmd answers one question about a video
var askCmd = &cobra.Command{
	Use:   "ask [YouTube URL or ID] [question]",
	Short: "Ask a question about a YouTube video",
	Example: `  # Ask about a video
  tldwbot ask tAP1eZYEuKA "What tools does the speaker recommend?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
			return err
		}

		id, err := videoID(args[0])
		if err != nil {
			return err
		}
		question := strings.Join(args[1:], " ")

		app := newCLIApp(cmd)
		defer app.Close()

		spinner := app.UI().NewSpinner("Thinking")
		answer, err := app.AskVideo(cmd.Context(), id, question)
		spinner.Finish()
		if err != nil {
			return err
		}

		return printHTML("", answer)
	},
}

func init() {
	askCmd.Flags().StringP("model", "m", "", "Model to use for the answer")
	askCmd.Flags().String("provider", "", "LLM provider (openai or anthropic)")
	askCmd.Flags().StringP("language", "l", "", "Language of the answer")
	rootCmd.AddCommand(askCmd)
}
