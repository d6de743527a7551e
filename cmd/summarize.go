package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/tldwbot/internal"
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize [YouTube URL or ID]",
	Short: "Summarize a YouTube video from its subtitles",
	Example: `  # Summarize a YouTube video
  tldwbot summarize "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  tldwbot summarize tAP1eZYEuKA

  # Use a specific model and language
  tldwbot summarize tAP1eZYEuKA --model gpt-4o --language English

  # Use a custom prompt
  tldwbot summarize tAP1eZYEuKA --prompt "tldr in {{.Language}}: {{.Transcript}}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
			return err
		}

		id, err := videoID(args[0])
		if err != nil {
			return err
		}

		app := newCLIApp(cmd)
		defer app.Close()

		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		spinner := app.UI().NewSpinner("Summarizing")
		summary, metadata, err := app.Summarize(cmd.Context(), id)
		spinner.Finish()
		if err != nil {
			return err
		}

		var title string
		if metadata != nil {
			title = metadata.Title
		}
		return printHTML(title, summary)
	},
}

func init() {
	internal.AddLLMFlags(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}
