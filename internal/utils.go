package internal

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	videoIDRe = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

	// host/path forms; the ID must not run on into more ID characters
	videoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^\s#]*&)?v=([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
		regexp.MustCompile(`(?i)(?:youtube\.com|youtube-nocookie\.com)/(?:embed|v|e|shorts|live)/([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
		regexp.MustCompile(`(?i)youtu\.be/([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
	}
)

// ContainsYouTubeLink reports whether text mentions a YouTube host
func ContainsYouTubeLink(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be")
}

// ExtractVideoID pulls the 11 character video ID out of a link, a message
// containing a link, or a bare ID
func ExtractVideoID(text string) (string, error) {
	text = strings.TrimSpace(text)
	if videoIDRe.MatchString(text) {
		return text, nil
	}

	for _, re := range videoURLPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidVideoURL, Truncate(text, 100))
}

// WatchURL returns the canonical watch URL of a video
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ParseArg normalizes a command line argument into a watch URL and a video ID
func ParseArg(arg string) (string, string, error) {
	id, err := ExtractVideoID(arg)
	if err != nil {
		return "", "", err
	}
	return WatchURL(id), id, nil
}

// IsValidYouTubeID checks if a string looks like a valid YouTube video ID
func IsValidYouTubeID(id string) bool {
	return videoIDRe.MatchString(id)
}

// IsLikelyCommand checks if a string looks like it might be a mistyped command
func IsLikelyCommand(arg string) bool {
	return len(arg) <= 10 && !IsValidYouTubeID(arg) && !ContainsYouTubeLink(arg)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SplitText breaks s into pieces of at most max runes at word boundaries.
// A single word longer than max becomes a piece of its own.
func SplitText(s string, max int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var (
		parts []string
		sb    strings.Builder
		n     int
	)
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if n > 0 && n+1+wl > max {
			parts = append(parts, sb.String())
			sb.Reset()
			n = 0
		}
		if n > 0 {
			sb.WriteByte(' ')
			n++
		}
		sb.WriteString(w)
		n += wl
	}
	return append(parts, sb.String())
}

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour
func RenderMarkdown(content string) (string, error) {
	width := getTerminalWidth()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	renderedContent, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return renderedContent, nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// EnsureDirs creates directories if needed
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" || FileExists(dir) {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
