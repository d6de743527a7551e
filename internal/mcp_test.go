package internal

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func newTestMCPServer(t *testing.T, llm LLMClient) *MCPServer {
	t.Helper()
	transcripts, metadata := talkSources()
	app := newTestApp(t, testConfig(), llm, []TranscriptSource{transcripts}, []MetadataSource{metadata})
	return NewMCPServer(app, "test")
}

func TestMCPTools(t *testing.T) {
	s := newTestMCPServer(t, &fakeLLM{replies: []string{"<b>Goroutines</b>\nare cheap"}})
	ctx := context.Background()
	url := "https://youtu.be/" + testVideoID

	result, err := s.handleGetMetadata(ctx, toolRequest(map[string]any{"url": url}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Title: Go Concurrency")
	assert.Contains(t, resultText(t, result), "Has Captions: true")

	result, err = s.handleGetTranscript(ctx, toolRequest(map[string]any{"url": testVideoID}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "горутинах и каналах")

	result, err = s.handleSummarize(ctx, toolRequest(map[string]any{"url": url}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "**Goroutines**")

	result, err = s.handleAsk(ctx, toolRequest(map[string]any{"url": url, "question": "why?"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestMCPToolErrors(t *testing.T) {
	s := newTestMCPServer(t, &fakeLLM{})
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"missing url", s.handleGetMetadata, map[string]any{}},
		{"url not a string", s.handleGetTranscript, map[string]any{"url": 42}},
		{"invalid url", s.handleSummarize, map[string]any{"url": "https://example.com/video"}},
		{"missing question", s.handleAsk, map[string]any{"url": testVideoID}},
		{"blank question", s.handleAsk, map[string]any{"url": testVideoID, "question": "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, toolRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestMCPNoCaptions(t *testing.T) {
	metadata := &fakeSource{name: "innertube", metadata: &VideoMetadata{Title: "Silent", CaptionsChecked: true}}
	app := newTestApp(t, testConfig(), &fakeLLM{}, []TranscriptSource{&fakeSource{name: "innertube"}}, []MetadataSource{metadata})
	s := NewMCPServer(app, "test")

	result, err := s.handleGetTranscript(context.Background(), toolRequest(map[string]any{"url": testVideoID}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "get_youtube_metadata")
}

func TestFormatMetadata(t *testing.T) {
	out := FormatMetadata(&VideoMetadata{
		Title:            "Go Concurrency",
		Channel:          "GopherCon",
		Duration:         754,
		HasCaptions:      true,
		CaptionLanguages: []string{"en", "ru"},
		Chapters:         []VideoChapter{{StartTime: 0, EndTime: 60, Title: "Intro"}},
	})

	assert.Contains(t, out, "Title: Go Concurrency\n")
	assert.Contains(t, out, "Duration: 754 seconds\n")
	assert.Contains(t, out, "Caption Languages: en, ru\n")
	assert.Contains(t, out, "Chapter (0-60): Intro\n")
	assert.NotContains(t, out, "Tags:")
}
