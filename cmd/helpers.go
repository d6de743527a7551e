package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rtzll/tldwbot/internal"
)

// newCLIApp builds an App for the one-shot commands, logging to stderr
func newCLIApp(cmd *cobra.Command) *internal.App {
	level := slog.LevelWarn
	if config.Verbose {
		level = slog.LevelDebug
	}
	return internal.NewApp(cmd.Context(), config, internal.WithLogger(internal.ConsoleLogger(level)))
}

// videoID validates a command line argument and returns its video ID
func videoID(arg string) (string, error) {
	if internal.IsLikelyCommand(arg) {
		// Check if it's similar to any available commands
		var suggestions []string
		for _, c := range rootCmd.Commands() {
			name := c.Name()
			if strings.Contains(name, arg) || (len(arg) <= len(name) && strings.Contains(arg, name[:len(arg)])) {
				suggestions = append(suggestions, name)
			}
		}

		if len(suggestions) > 0 {
			return "", fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Did you mean: %s?", arg, strings.Join(suggestions, ", "))
		}
		return "", fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Use --help to see available commands", arg)
	}

	_, id, err := internal.ParseArg(arg)
	return id, err
}

// fetchTranscript retrieves a transcript for the given argument with a spinner
func fetchTranscript(cmd *cobra.Command, app *internal.App, arg string) (*internal.Transcript, error) {
	id, err := videoID(arg)
	if err != nil {
		return nil, err
	}

	spinner := app.UI().NewSpinner("Fetching transcript")
	defer spinner.Finish()

	return app.GetTranscript(cmd.Context(), id)
}

// printHTML prints Telegram HTML as rendered markdown on a terminal and
// as plain markdown otherwise
func printHTML(title, content string) error {
	md, err := internal.HTMLToMarkdown(content)
	if err != nil {
		return err
	}
	if title != "" {
		md = "# " + title + "\n\n" + md
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println(md)
		return nil
	}

	rendered, err := internal.RenderMarkdown(md)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}
