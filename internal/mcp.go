package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		AppName,
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_youtube_metadata",
		mcp.WithDescription("Extract video metadata including caption availability. Check 'Has Captions' before asking for a transcript or summary."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or ID"),
			mcp.Required(),
		),
	), s.handleGetMetadata)

	s.mcpServer.AddTool(mcp.NewTool("get_youtube_transcript",
		mcp.WithDescription("Get the subtitles of a YouTube video as plain text, in the first available preferred language. Fails if the video has no captions."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or ID"),
			mcp.Required(),
		),
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("summarize_youtube_video",
		mcp.WithDescription("Summarize a YouTube video from its subtitles using the configured language model. Returns markdown."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or ID"),
			mcp.Required(),
		),
	), s.handleSummarize)

	s.mcpServer.AddTool(mcp.NewTool("ask_youtube_video",
		mcp.WithDescription("Answer a question about a YouTube video using only its subtitles. Returns markdown."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or ID"),
			mcp.Required(),
		),
		mcp.WithString("question",
			mcp.Description("Question about the video"),
			mcp.Required(),
		),
	), s.handleAsk)
}

func requireVideoID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	url, err := request.RequireString("url")
	if err != nil {
		return "", mcp.NewToolResultError("url parameter is required and must be a string")
	}

	videoID, err := ExtractVideoID(url)
	if err != nil {
		return "", mcp.NewToolResultErrorFromErr("invalid YouTube URL", err)
	}
	return videoID, nil
}

// handleGetMetadata implements the get_youtube_metadata tool
func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	metadata, err := s.app.Metadata(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}

	return mcp.NewToolResultText(FormatMetadata(metadata)), nil
}

// handleGetTranscript implements the get_youtube_transcript tool
func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	transcript, err := s.app.GetTranscript(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("no captions available - use get_youtube_metadata to check caption availability", err), nil
	}

	return mcp.NewToolResultText(transcript.Text), nil
}

// handleSummarize implements the summarize_youtube_video tool
func (s *MCPServer) handleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	summary, _, err := s.app.Summarize(ctx, videoID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to summarize video", err), nil
	}

	return mcp.NewToolResultText(s.markdown(summary)), nil
}

// handleAsk implements the ask_youtube_video tool
func (s *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, errResult := requireVideoID(request)
	if errResult != nil {
		return errResult, nil
	}

	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}

	answer, err := s.app.AskVideo(ctx, videoID, question)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to answer question", err), nil
	}

	return mcp.NewToolResultText(s.markdown(answer)), nil
}

func (s *MCPServer) markdown(html string) string {
	md, err := HTMLToMarkdown(html)
	if err != nil {
		s.app.logger.Debug("markdown conversion failed, returning html")
		return html
	}
	return md
}

// FormatMetadata renders metadata as labelled lines
func FormatMetadata(metadata *VideoMetadata) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Title: %s\n", metadata.Title))
	buf.WriteString(fmt.Sprintf("Channel: %s\n", metadata.Channel))
	buf.WriteString(fmt.Sprintf("Duration: %.0f seconds\n", metadata.Duration))
	buf.WriteString(fmt.Sprintf("Description: %s\n", metadata.Description))
	buf.WriteString(fmt.Sprintf("Has Captions: %t\n", metadata.HasCaptions))

	if len(metadata.CaptionLanguages) > 0 {
		buf.WriteString(fmt.Sprintf("Caption Languages: %s\n", strings.Join(metadata.CaptionLanguages, ", ")))
	}
	if len(metadata.Tags) > 0 {
		buf.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(metadata.Tags, ", ")))
	}
	if len(metadata.Categories) > 0 {
		buf.WriteString(fmt.Sprintf("Categories: %s\n", strings.Join(metadata.Categories, ", ")))
	}
	for _, ch := range metadata.Chapters {
		buf.WriteString(fmt.Sprintf("Chapter (%.0f-%.0f): %s\n", ch.StartTime, ch.EndTime, ch.Title))
	}

	return buf.String()
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		go func() {
			<-ctx.Done()
			_ = httpServer.Shutdown(context.Background())
		}()
		return httpServer.Start(addr)
	}

	// Default to stdio transport
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
