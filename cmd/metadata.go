package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rtzll/tldwbot/internal"
	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [URL]",
	Short: "Show title, channel and caption languages of a video",
	Example: `  # Check whether a video has captions before sending it to the bot
  tldwbot metadata "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Full metadata as JSON, saved to a file
  tldwbot metadata tAP1eZYEuKA --json --pretty -o metadata.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := videoID(args[0])
		if err != nil {
			return err
		}

		app := newCLIApp(cmd)
		defer app.Close()

		metadata, err := app.Metadata(cmd.Context(), id)
		if err != nil {
			return err
		}

		out, err := renderMetadata(cmd, metadata)
		if err != nil {
			return err
		}

		if outputFile, _ := cmd.Flags().GetString("output"); outputFile != "" {
			return os.WriteFile(outputFile, out, 0644)
		}
		fmt.Print(string(out))
		return nil
	},
}

func renderMetadata(cmd *cobra.Command, metadata *internal.VideoMetadata) ([]byte, error) {
	asJSON, _ := cmd.Flags().GetBool("json")
	pretty, _ := cmd.Flags().GetBool("pretty")
	if !asJSON && !pretty {
		return []byte(internal.FormatMetadata(metadata)), nil
	}

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(metadata, "", "  ")
	} else {
		data, err = json.Marshal(metadata)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return append(data, '\n'), nil
}

func init() {
	metadataCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	metadataCmd.Flags().Bool("json", false, "Print metadata as JSON")
	metadataCmd.Flags().Bool("pretty", false, "Indent the JSON output (implies --json)")
	rootCmd.AddCommand(metadataCmd)
}
