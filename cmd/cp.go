package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// cpCmd copies the transcript to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [URL]",
	Short: "Copy transcript from YouTube to the clipboard",
	Example: `  # Copy transcript from YouTube captions
  tldwbot cp "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  tldwbot cp tAP1eZYEuKA`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newCLIApp(cmd)
		defer app.Close()

		transcript, err := fetchTranscript(cmd, app, args[0])
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(transcript.Text); err != nil {
			return fmt.Errorf("copying transcript to clipboard: %w", err)
		}

		app.UI().Println("Transcript copied to clipboard")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
}
