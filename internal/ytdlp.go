package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/asticode/go-astisub"
	"github.com/lrstanley/go-ytdlp"
)

// YtdlpSource fetches subtitles and metadata with yt-dlp. It is slower
// than InnertubeSource but keeps working when YouTube changes its player.
type YtdlpSource struct {
	tempDir string
	proxy   string
	logger  *slog.Logger

	installOnce sync.Once
	installErr  error
}

// NewYtdlpSource creates the source. Subtitles are written into
// short-lived directories under tempDir.
func NewYtdlpSource(tempDir, proxy string, logger *slog.Logger) *YtdlpSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &YtdlpSource{tempDir: tempDir, proxy: proxy, logger: logger}
}

func (s *YtdlpSource) Name() string { return "yt-dlp" }

// ensureInstalled downloads yt-dlp on first use if it is not on PATH
func (s *YtdlpSource) ensureInstalled(ctx context.Context) error {
	s.installOnce.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			s.installErr = fmt.Errorf("installing yt-dlp: %w", err)
		}
	})
	return s.installErr
}

func (s *YtdlpSource) command() *ytdlp.Command {
	dl := ytdlp.New().NoPlaylist()
	if s.proxy != "" {
		dl = dl.Proxy(s.proxy)
	}
	return dl
}

// Metadata fetches video details using go-ytdlp
func (s *YtdlpSource) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if err := s.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	result, err := s.command().
		DumpSingleJSON().
		SkipDownload().
		Run(ctx, WatchURL(videoID))
	if err != nil {
		if result != nil {
			s.logger.Debug("yt-dlp metadata failed", slog.String("stderr", result.Stderr))
		}
		return nil, fmt.Errorf("extracting video metadata: %w", err)
	}

	return parseYtdlpMetadata([]byte(result.Stdout))
}

// parseYtdlpMetadata decodes yt-dlp's JSON dump
func parseYtdlpMetadata(data []byte) (*VideoMetadata, error) {
	var metadata VideoMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	var subs struct {
		Subtitles         map[string]json.RawMessage `json:"subtitles"`
		AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("parsing subtitle info: %w", err)
	}

	seen := make(map[string]bool)
	for lang := range subs.Subtitles {
		seen[lang] = true
	}
	for lang := range subs.AutomaticCaptions {
		seen[lang] = true
	}
	metadata.CaptionLanguages = metadata.CaptionLanguages[:0]
	for lang := range seen {
		metadata.CaptionLanguages = append(metadata.CaptionLanguages, lang)
	}
	sort.Strings(metadata.CaptionLanguages)

	metadata.HasCaptions = len(seen) > 0
	metadata.CaptionsChecked = true
	if metadata.Channel == "" {
		metadata.Channel = metadata.Uploader
	}

	return &metadata, nil
}

// Transcript downloads manual and automatic subtitles for the preferred
// languages as SRT and returns the best one
func (s *YtdlpSource) Transcript(ctx context.Context, videoID string, langs []string) (*Transcript, error) {
	if err := s.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	if err := EnsureDirs(s.tempDir); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(s.tempDir, "subs-"+videoID+"-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("removing subtitle directory", slog.String("dir", dir), slog.Any("error", err))
		}
	}()

	result, err := s.command().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(strings.Join(langs, ",")).
		ConvertSubs("srt").
		SkipDownload().
		Output(filepath.Join(dir, "%(id)s")).
		Run(ctx, WatchURL(videoID))
	if err != nil {
		if result != nil {
			s.logger.Debug("yt-dlp subtitles failed", slog.String("stderr", result.Stderr))
		}
		return nil, fmt.Errorf("downloading subtitles: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.srt"))
	if err != nil || len(files) == 0 {
		return nil, fmt.Errorf("%w: yt-dlp found no subtitles in %s", ErrNoCaptions, strings.Join(langs, ", "))
	}

	path, lang := pickSubtitleFile(files, videoID, langs)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening subtitles: %w", err)
	}
	defer f.Close()

	text, err := parseSRT(f)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	return &Transcript{
		VideoID:  videoID,
		Language: lang,
		Source:   s.Name(),
		Text:     text,
	}, nil
}

// pickSubtitleFile chooses among files named <id>.<lang>.srt following
// the language preference, and returns the file with its language
func pickSubtitleFile(files []string, videoID string, langs []string) (string, string) {
	langOf := func(path string) string {
		name := strings.TrimSuffix(filepath.Base(path), ".srt")
		return strings.TrimPrefix(strings.TrimPrefix(name, videoID), ".")
	}

	sort.Strings(files)
	for _, pref := range langs {
		for _, f := range files {
			if matchesLanguage(langOf(f), pref) {
				return f, langOf(f)
			}
		}
	}
	return files[0], langOf(files[0])
}

// parseSRT extracts the text of an SRT document with astisub
func parseSRT(r io.Reader) (string, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return "", fmt.Errorf("parsing subtitles: %w", err)
	}

	cues := make([][]string, 0, len(subs.Items))
	for _, item := range subs.Items {
		var lines []string
		for _, line := range item.Lines {
			var parts []string
			for _, li := range line.Items {
				parts = append(parts, li.Text)
			}
			lines = append(lines, CleanCaptionMarkup(strings.Join(parts, " ")))
		}
		cues = append(cues, lines)
	}

	var lines []string
	for _, cue := range cues {
		lines = append(lines, cue...)
	}
	return cleanSegments(lines, isRolling(cues)), nil
}

// isRolling reports whether subtitles look like converted auto-captions,
// where each cue starts with the line the previous cue ended with
func isRolling(cues [][]string) bool {
	repeats := 0
	for i := 1; i < len(cues); i++ {
		prev, cur := cues[i-1], cues[i]
		if len(prev) > 0 && len(cur) > 1 && cur[0] != "" && cur[0] == prev[len(prev)-1] {
			repeats++
		}
	}
	return repeats > 0 && repeats*2 >= len(cues)-1
}
