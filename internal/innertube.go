package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// InnertubeSource reads captions and details straight from YouTube's
// player API through kkdai/youtube, without external binaries
type InnertubeSource struct {
	client *youtube.Client
}

// NewInnertubeSource creates the source; httpClient may be nil
func NewInnertubeSource(httpClient *http.Client) *InnertubeSource {
	client := &youtube.Client{}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	return &InnertubeSource{client: client}
}

func (s *InnertubeSource) Name() string { return "innertube" }

func (s *InnertubeSource) Transcript(ctx context.Context, videoID string, langs []string) (*Transcript, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("getting video: %w", err)
	}

	if len(video.CaptionTracks) == 0 {
		return nil, ErrNoCaptions
	}

	track := pickCaptionTrack(video.CaptionTracks, langs)

	segments, err := s.client.GetTranscriptCtx(ctx, video, track.LanguageCode)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptDisabled) {
			return nil, fmt.Errorf("%w: %v", ErrNoCaptions, err)
		}
		return nil, fmt.Errorf("getting transcript (%s): %w", track.LanguageCode, err)
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}

	// transcript segments do not overlap, even for asr tracks
	text := cleanSegments(texts, false)
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	return &Transcript{
		VideoID:       videoID,
		Language:      track.LanguageCode,
		AutoGenerated: track.Kind == "asr",
		Source:        s.Name(),
		Text:          text,
	}, nil
}

func (s *InnertubeSource) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("getting video: %w", err)
	}

	langs := make([]string, 0, len(video.CaptionTracks))
	for _, t := range video.CaptionTracks {
		langs = append(langs, t.LanguageCode)
	}

	return &VideoMetadata{
		Title:            video.Title,
		Description:      video.Description,
		Channel:          video.Author,
		Duration:         video.Duration.Seconds(),
		HasCaptions:      len(video.CaptionTracks) > 0,
		CaptionLanguages: langs,
		CaptionsChecked:  true,
	}, nil
}

// pickCaptionTrack selects a track for the preferred languages: a manual
// track first, then an auto-generated one, then any English track, then
// whatever comes first. tracks must not be empty.
func pickCaptionTrack(tracks []youtube.CaptionTrack, langs []string) youtube.CaptionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if matchesLanguage(t.LanguageCode, lang) && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if matchesLanguage(t.LanguageCode, lang) {
				return t
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}
