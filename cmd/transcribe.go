package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [YouTube URL or ID]",
	Short: "Get transcript from YouTube subtitles (cached or downloaded)",
	Example: `  # Get transcript from YouTube captions
  tldwbot transcribe "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  tldwbot transcribe tAP1eZYEuKA

  # Save transcript to file
  tldwbot transcribe tAP1eZYEuKA -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newCLIApp(cmd)
		defer app.Close()

		transcript, err := fetchTranscript(cmd, app, args[0])
		if err != nil {
			return err
		}
		app.UI().Verbose("Transcript language: %s (source: %s, auto-generated: %t)\n",
			transcript.Language, transcript.Source, transcript.AutoGenerated)

		// Handle output flag
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, []byte(transcript.Text), 0644)
		}

		fmt.Println(transcript.Text)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(transcribeCmd)
}
