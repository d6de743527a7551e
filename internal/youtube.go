package internal

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// VideoMetadata contains YouTube video information
type VideoMetadata struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Channel          string         `json:"channel"`
	Uploader         string         `json:"uploader,omitempty"`
	Duration         float64        `json:"duration"`
	Categories       []string       `json:"categories,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Chapters         []VideoChapter `json:"chapters,omitempty"`
	HasCaptions      bool           `json:"has_captions"`
	CaptionLanguages []string       `json:"caption_languages,omitempty"`
	// CaptionsChecked is false when the source could not tell whether
	// captions exist, so HasCaptions must not be trusted
	CaptionsChecked bool   `json:"captions_checked"`
	Source          string `json:"source"`
}

// VideoChapter represents a video chapter marker
type VideoChapter struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
}

// Transcript is the cleaned caption text of a video
type Transcript struct {
	VideoID       string `json:"video_id"`
	Language      string `json:"language"`
	AutoGenerated bool   `json:"auto_generated"`
	Translated    bool   `json:"translated"`
	Source        string `json:"source"`
	Text          string `json:"text"`
}

// TranscriptSource fetches captions for a video
type TranscriptSource interface {
	Name() string
	// Transcript returns captions in the first available of langs.
	// Errors wrap ErrNoCaptions when the video has no usable track.
	Transcript(ctx context.Context, videoID string, langs []string) (*Transcript, error)
}

// MetadataSource fetches video details
type MetadataSource interface {
	Name() string
	Metadata(ctx context.Context, videoID string) (*VideoMetadata, error)
}

// YouTube tries its sources in order until one succeeds
type YouTube struct {
	transcripts []TranscriptSource
	metadata    []MetadataSource
	languages   []string
	logger      *slog.Logger
}

// NewYouTube builds the default source chains from config: the built-in
// client first, yt-dlp as fallback, and the Data API for metadata when an
// API key is configured
func NewYouTube(ctx context.Context, config *Config, httpClient *http.Client, logger *slog.Logger) *YouTube {
	innertube := NewInnertubeSource(httpClient)

	var transcripts []TranscriptSource
	var metadata []MetadataSource

	if config.YouTubeAPIKey != "" {
		dataAPI, err := NewDataAPISource(ctx, config.YouTubeAPIKey)
		if err != nil {
			logger.Warn("youtube data api disabled", slog.Any("error", err))
		} else {
			metadata = append(metadata, dataAPI)
		}
	}

	transcripts = append(transcripts, innertube)
	metadata = append(metadata, innertube)

	if config.Ytdlp {
		ytdlp := NewYtdlpSource(config.CacheDir, config.ProxyURL, logger)
		transcripts = append(transcripts, ytdlp)
		metadata = append(metadata, ytdlp)
	}

	return NewYouTubeWithSources(config.Languages, logger, transcripts, metadata)
}

// NewYouTubeWithSources creates a YouTube with explicit source chains
func NewYouTubeWithSources(languages []string, logger *slog.Logger, transcripts []TranscriptSource, metadata []MetadataSource) *YouTube {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{
		transcripts: transcripts,
		metadata:    metadata,
		languages:   languages,
		logger:      logger,
	}
}

// FetchTranscript returns the cleaned transcript of a video. When every
// source fails the error wraps ErrNoCaptions if any source reported that.
func (yt *YouTube) FetchTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	if len(yt.transcripts) == 0 {
		return nil, errors.New("no transcript sources configured")
	}

	var errs []error
	for _, src := range yt.transcripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tr, err := src.Transcript(ctx, videoID, yt.languages)
		if err == nil && tr != nil && strings.TrimSpace(tr.Text) != "" {
			yt.logger.Debug("transcript fetched",
				slog.String("video_id", videoID),
				slog.String("source", src.Name()),
				slog.String("language", tr.Language),
				slog.Int("chars", len(tr.Text)))
			return tr, nil
		}
		if err == nil {
			err = ErrEmptyTranscript
		}
		yt.logger.Warn("transcript source failed",
			slog.String("video_id", videoID),
			slog.String("source", src.Name()),
			slog.Any("error", err))
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	return nil, fmt.Errorf("fetching transcript for %s: %w", videoID, errors.Join(errs...))
}

// Metadata returns details of a video from the first source that answers
func (yt *YouTube) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if len(yt.metadata) == 0 {
		return nil, errors.New("no metadata sources configured")
	}

	var errs []error
	for _, src := range yt.metadata {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta, err := src.Metadata(ctx, videoID)
		if err == nil && meta != nil {
			meta.ID = videoID
			meta.Source = src.Name()
			return meta, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		yt.logger.Warn("metadata source failed",
			slog.String("video_id", videoID),
			slog.String("source", src.Name()),
			slog.Any("error", err))
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	return nil, fmt.Errorf("fetching metadata for %s: %w", videoID, errors.Join(errs...))
}

// cleanSegments joins caption lines into one paragraph. Blank lines are
// dropped and every other line is kept. With rolling set, the repeats that
// rolling auto-captions produce are collapsed, compared word by word.
func cleanSegments(segments []string, rolling bool) string {
	lines := make([][]string, 0, len(segments))
	for _, seg := range segments {
		words := strings.Fields(seg)
		if len(words) == 0 {
			continue
		}
		if n := len(lines); rolling && n > 0 {
			last := lines[n-1]
			switch {
			case hasWordPrefix(words, last):
				// the line grew while it was on screen
				lines[n-1] = words
				continue
			case hasWordSuffix(last, words):
				continue
			}
		}
		lines = append(lines, words)
	}

	out := make([]string, len(lines))
	for i, words := range lines {
		out[i] = strings.Join(words, " ")
	}
	return strings.Join(out, " ")
}

// hasWordPrefix reports whether words starts with all of prefix
func hasWordPrefix(words, prefix []string) bool {
	return len(prefix) <= len(words) && slices.Equal(words[:len(prefix)], prefix)
}

// hasWordSuffix reports whether words ends with all of suffix
func hasWordSuffix(words, suffix []string) bool {
	return len(suffix) <= len(words) && slices.Equal(words[len(words)-len(suffix):], suffix)
}

// matchesLanguage reports whether a caption language code such as "en-US"
// belongs to the preferred language "en"
func matchesLanguage(code, lang string) bool {
	code = strings.ToLower(code)
	lang = strings.ToLower(lang)
	return code == lang || strings.HasPrefix(code, lang+"-")
}

var captionTagRe = regexp.MustCompile(`<[^>]*>`)

// CleanCaptionMarkup removes inline styling from a caption line and
// decodes HTML entities
func CleanCaptionMarkup(s string) string {
	s = captionTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}
