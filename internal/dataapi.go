package internal

import (
	"context"
	"fmt"
	"sort"

	"github.com/sosodev/duration"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// DataAPISource reads video details from the YouTube Data API v3.
// Downloading caption text needs OAuth, so it only serves metadata.
type DataAPISource struct {
	svc *ytapi.Service
}

// NewDataAPISource creates the source for an API key
func NewDataAPISource(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPISource, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &DataAPISource{svc: svc}, nil
}

func (s *DataAPISource) Name() string { return "data-api" }

func (s *DataAPISource) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	resp, err := s.svc.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing video: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	video := resp.Items[0]
	metadata := &VideoMetadata{}
	if video.Snippet != nil {
		metadata.Title = video.Snippet.Title
		metadata.Description = video.Snippet.Description
		metadata.Channel = video.Snippet.ChannelTitle
		metadata.Tags = video.Snippet.Tags
	}
	if video.ContentDetails != nil {
		metadata.Duration = videoSeconds(video.ContentDetails.Duration)
	}

	// captions.list includes auto-generated tracks, unlike contentDetails.caption
	langs, err := s.captionLanguages(ctx, videoID)
	if err == nil {
		metadata.CaptionLanguages = langs
		metadata.HasCaptions = len(langs) > 0
		metadata.CaptionsChecked = true
	}

	return metadata, nil
}

func (s *DataAPISource) captionLanguages(ctx context.Context, videoID string) ([]string, error) {
	resp, err := s.svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing captions: %w", err)
	}

	seen := make(map[string]bool)
	var langs []string
	for _, c := range resp.Items {
		if c.Snippet == nil || seen[c.Snippet.Language] {
			continue
		}
		seen[c.Snippet.Language] = true
		langs = append(langs, c.Snippet.Language)
	}
	sort.Strings(langs)
	return langs, nil
}

// videoSeconds converts the ISO 8601 duration of contentDetails, e.g.
// PT1H2M3S, into seconds. Unparseable values count as unknown (0).
func videoSeconds(iso string) float64 {
	d, err := duration.Parse(iso)
	if err != nil {
		return 0
	}
	return d.ToTimeDuration().Seconds()
}
