package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SetupLogging opens log_dir/bot_YYYYMMDD.log and returns a logger writing
// to it, and to stderr as well when console is true. The MCP stdio server
// passes false because stdout and stdin carry the protocol.
func SetupLogging(config *Config, console bool) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if err := EnsureDirs(config.LogDir); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(config.LogDir, fmt.Sprintf("bot_%s.log", time.Now().Format("20060102")))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = logFile
	if console {
		w = io.MultiWriter(os.Stderr, logFile)
	}

	return slog.New(slog.NewTextHandler(w, opts)), logFile, nil
}

// ConsoleLogger logs to stderr only. The one-shot commands use it, and the
// bot falls back to it when the log file cannot be opened.
func ConsoleLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// VideoRequest is one line of the request log
type VideoRequest struct {
	RequestID string
	UserID    int64
	Username  string
	ChatID    int64
	URL       string
}

// RequestLog records every video link users send, one JSON object per line
type RequestLog struct {
	logger *slog.Logger
	file   io.Closer
}

// OpenRequestLog appends to dir/requests.log
func OpenRequestLog(dir string) (*RequestLog, error) {
	if err := EnsureDirs(dir); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "requests.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening request log: %w", err)
	}

	return NewRequestLog(f), nil
}

// NewRequestLog writes request records to w. w is closed by Close when
// it implements io.Closer.
func NewRequestLog(w io.Writer) *RequestLog {
	rl := &RequestLog{logger: slog.New(slog.NewJSONHandler(w, nil))}
	if c, ok := w.(io.Closer); ok {
		rl.file = c
	}
	return rl
}

// Log writes one record. A nil RequestLog discards it.
func (rl *RequestLog) Log(ctx context.Context, req VideoRequest) {
	if rl == nil {
		return
	}
	rl.logger.LogAttrs(ctx, slog.LevelInfo, "video request",
		slog.String("request_id", req.RequestID),
		slog.Int64("user_id", req.UserID),
		slog.String("username", req.Username),
		slog.Int64("chat_id", req.ChatID),
		slog.String("url", req.URL),
	)
}

// Close closes the underlying file
func (rl *RequestLog) Close() error {
	if rl == nil || rl.file == nil {
		return nil
	}
	return rl.file.Close()
}
