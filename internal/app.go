package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	descriptionLimit    = 500
	translateChunkRunes = 8000
)

// App holds the application state and dependencies
type App struct {
	youtube       *YouTube
	ai            *AI
	promptManager *PromptManager
	sessions      SessionStore
	cache         *Cache
	config        *Config
	ui            UIManager
	logger        *slog.Logger
}

// AppOption customizes App creation
type AppOption func(*App)

// WithYouTube sets custom YouTube sources
func WithYouTube(youtube *YouTube) AppOption {
	return func(a *App) {
		a.youtube = youtube
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// WithSessionStore sets the chat session store
func WithSessionStore(store SessionStore) AppOption {
	return func(a *App) {
		a.sessions = store
	}
}

// WithCache sets the lookup cache
func WithCache(cache *Cache) AppOption {
	return func(a *App) {
		a.cache = cache
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithUI sets the terminal UI
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// NewApp initializes the application. Options are applied first; whatever
// they leave unset is built from config.
func NewApp(ctx context.Context, config *Config, options ...AppOption) *App {
	app := &App{config: config}

	for _, option := range options {
		option(app)
	}

	if app.logger == nil {
		app.logger = slog.Default()
	}
	if app.ui == nil {
		app.ui = NewUIManager(config.Verbose, config.Quiet)
	}
	if app.promptManager == nil {
		app.promptManager = NewPromptManager(config.ConfigDir, config.Prompt)
	}
	if app.sessions == nil {
		app.sessions = NewMemoryStore()
	}

	var httpClient *http.Client
	if app.youtube == nil || app.ai == nil {
		var err error
		httpClient, err = NewHTTPClient(config, config.RequestTimeout)
		if err != nil {
			app.logger.Error("invalid network settings, using defaults", slog.Any("error", err))
			httpClient = &http.Client{Timeout: config.RequestTimeout}
		}
	}
	if app.youtube == nil {
		app.youtube = NewYouTube(ctx, config, httpClient, app.logger)
	}
	if app.ai == nil {
		// model calls are bounded by summary_timeout instead of the client timeout
		llmClient := &http.Client{Transport: httpClient.Transport}
		app.ai = NewAIFromConfig(config, llmClient, app.logger)
	}
	if app.cache == nil {
		app.cache = NewCache(ctx, config.RedisURL, config.CacheTTL, config.CacheMaxEntries, app.logger)
	}

	return app
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// Config returns the configuration the app was built with
func (app *App) Config() *Config {
	return app.config
}

// UI returns the terminal UI manager
func (app *App) UI() UIManager {
	return app.ui
}

// Logger returns the app logger
func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Close releases external connections
func (app *App) Close() error {
	return app.cache.Close()
}

// Metadata gets metadata from YouTube (cached or fresh)
func (app *App) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	key := CacheKey("meta", videoID)

	var cached VideoMetadata
	if app.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	metadata, err := app.youtube.Metadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	app.cache.Set(ctx, key, metadata)
	return metadata, nil
}

// GetTranscript gets the transcript of a video (cached or downloaded),
// translated when translation is enabled and the captions are in another language
func (app *App) GetTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	key := CacheKey("transcript", videoID, strings.Join(app.config.Languages, ","), app.translationTarget())

	var cached Transcript
	if app.cache.Get(ctx, key, &cached) {
		app.logger.Debug("using cached transcript", slog.String("video_id", videoID))
		return &cached, nil
	}

	fetchCtx := ctx
	if app.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, app.config.FetchTimeout)
		defer cancel()
	}

	// Check metadata first to see if captions are available (faster than attempting download)
	metadata, err := app.Metadata(fetchCtx, videoID)
	if err != nil {
		app.logger.Debug("metadata unavailable, trying captions anyway",
			slog.String("video_id", videoID), slog.Any("error", err))
	} else if metadata.CaptionsChecked && !metadata.HasCaptions {
		return nil, fmt.Errorf("%w for %s", ErrNoCaptions, videoID)
	}

	transcript, err := app.youtube.FetchTranscript(fetchCtx, videoID)
	if err != nil {
		return nil, err
	}

	if app.needsTranslation(transcript) {
		transcript, err = app.translateTranscript(ctx, transcript)
		if err != nil {
			return nil, err
		}
	}

	app.cache.Set(ctx, key, transcript)
	return transcript, nil
}

func (app *App) translationTarget() string {
	if !app.config.Translate {
		return "original"
	}
	return app.config.SummaryLanguage
}

// needsTranslation is true when translation is on and the captions are
// not in the first preferred language
func (app *App) needsTranslation(t *Transcript) bool {
	if !app.config.Translate || t.Language == "" || len(app.config.Languages) == 0 {
		return false
	}
	return !matchesLanguage(t.Language, app.config.Languages[0])
}

// translateTranscript translates a transcript piece by piece so long
// videos fit into the model's output limit
func (app *App) translateTranscript(ctx context.Context, t *Transcript) (*Transcript, error) {
	chunks := SplitText(t.Text, translateChunkRunes)
	translated := make([]string, 0, len(chunks))

	bar := app.ui.NewProgressBar(len(chunks), "Translating")
	defer bar.Finish()

	for i, chunk := range chunks {
		bar.Set(i)
		prompt, err := app.promptManager.Render(PromptTranslate, PromptData{
			Language: app.config.SummaryLanguage,
			Text:     chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("creating prompt: %w", err)
		}

		out, err := app.ai.Translate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("translating part %d/%d: %w", i+1, len(chunks), err)
		}
		translated = append(translated, strings.TrimSpace(out))
	}

	app.logger.Info("transcript translated",
		slog.String("video_id", t.VideoID),
		slog.String("from", t.Language),
		slog.String("to", app.config.SummaryLanguage),
		slog.Int("parts", len(chunks)))

	result := *t
	result.Text = strings.Join(translated, " ")
	result.Translated = true
	return &result, nil
}

// promptData prepares template data from metadata and a transcript
func (app *App) promptData(metadata *VideoMetadata, transcript string) PromptData {
	data := PromptData{
		Transcript: transcript,
		Language:   app.config.SummaryLanguage,
	}

	if limit := app.config.MaxTranscriptChars; limit > 0 && len([]rune(transcript)) > limit {
		data.Transcript = string([]rune(transcript)[:limit])
		data.Truncated = true
	}

	if metadata != nil {
		data.Title = metadata.Title
		data.Channel = metadata.Channel
		data.Description = Truncate(metadata.Description, descriptionLimit)
	}

	return data
}

// GenerateSummary creates a Telegram HTML summary of a transcript
func (app *App) GenerateSummary(ctx context.Context, transcript *Transcript, metadata *VideoMetadata) (string, error) {
	if transcript == nil || strings.TrimSpace(transcript.Text) == "" {
		return "", ErrEmptyTranscript
	}

	data := app.promptData(metadata, transcript.Text)

	system, err := app.promptManager.Render(PromptSystem, data)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}
	prompt, err := app.promptManager.Render(PromptSummary, data)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	content, err := app.ai.Summary(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}

	summary := SanitizeHTML(content)
	if summary == "" {
		return "", ErrEmptyCompletion
	}
	return summary, nil
}

// AnswerQuestion answers a question about the video of a session
func (app *App) AnswerQuestion(ctx context.Context, session *Session, question string) (string, error) {
	if session == nil || strings.TrimSpace(session.Transcript) == "" {
		return "", ErrNoSession
	}

	data := app.promptData(&VideoMetadata{Title: session.Title}, session.Transcript)
	data.Question = strings.TrimSpace(question)

	system, err := app.promptManager.Render(PromptSystem, data)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}
	prompt, err := app.promptManager.Render(PromptAnswer, data)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	content, err := app.ai.Answer(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}

	answer := SanitizeHTML(content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}
	return answer, nil
}

// ProcessVideo runs the whole pipeline for a chat: transcript, session,
// summary. The session is stored before summarizing so questions work
// even when the summary fails; in that case the session is returned
// together with the error.
func (app *App) ProcessVideo(ctx context.Context, chatID int64, text string) (*Session, error) {
	videoID, err := ExtractVideoID(text)
	if err != nil {
		return nil, err
	}

	transcript, err := app.GetTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// usually cached by GetTranscript
	metadata, err := app.Metadata(ctx, videoID)
	if err != nil {
		metadata = nil
	}

	session := &Session{
		ChatID:     chatID,
		VideoID:    videoID,
		Language:   transcript.Language,
		Transcript: transcript.Text,
		UpdatedAt:  time.Now(),
	}
	if metadata != nil {
		session.Title = metadata.Title
	}
	app.sessions.Put(ctx, session)

	summary, err := app.GenerateSummary(ctx, transcript, metadata)
	if err != nil {
		return session, err
	}

	stored := session.UpdatedAt
	session.Summary = summary
	session.UpdatedAt = time.Now()

	// a newer video or a /reset sent meanwhile wins
	if !app.sessions.CompareAndPut(ctx, stored, session) {
		app.logger.Debug("session changed while summarizing, summary not stored",
			slog.Int64("chat_id", chatID), slog.String("video_id", videoID))
	}

	app.logger.Info("video processed",
		slog.Int64("chat_id", chatID),
		slog.String("video_id", videoID),
		slog.String("language", transcript.Language),
		slog.String("source", transcript.Source),
		slog.Bool("translated", transcript.Translated))

	return session, nil
}

// Ask answers a follow-up question using the chat's current video
func (app *App) Ask(ctx context.Context, chatID int64, question string) (string, error) {
	session, ok := app.sessions.Get(ctx, chatID)
	if !ok {
		return "", ErrNoSession
	}
	return app.AnswerQuestion(ctx, session, question)
}

// Session returns the current session of a chat
func (app *App) Session(ctx context.Context, chatID int64) (*Session, bool) {
	return app.sessions.Get(ctx, chatID)
}

// ResetSession forgets the chat's video
func (app *App) ResetSession(ctx context.Context, chatID int64) {
	app.sessions.Delete(ctx, chatID)
}

// Summarize returns the summary of a video without touching chat sessions
func (app *App) Summarize(ctx context.Context, videoID string) (string, *VideoMetadata, error) {
	transcript, err := app.GetTranscript(ctx, videoID)
	if err != nil {
		return "", nil, err
	}

	metadata, err := app.Metadata(ctx, videoID)
	if err != nil {
		app.logger.Debug("failed to extract video metadata", slog.Any("error", err))
		metadata = nil
	}

	summary, err := app.GenerateSummary(ctx, transcript, metadata)
	if err != nil {
		return "", metadata, err
	}
	return summary, metadata, nil
}

// AskVideo answers a question about a video without touching chat sessions
func (app *App) AskVideo(ctx context.Context, videoID, question string) (string, error) {
	transcript, err := app.GetTranscript(ctx, videoID)
	if err != nil {
		return "", err
	}

	session := &Session{VideoID: videoID, Transcript: transcript.Text, Language: transcript.Language}
	if metadata, err := app.Metadata(ctx, videoID); err == nil {
		session.Title = metadata.Title
	}

	return app.AnswerQuestion(ctx, session, question)
}

// IsNoCaptions reports whether err means the video has nothing to summarize
func IsNoCaptions(err error) bool {
	return errors.Is(err, ErrNoCaptions) || errors.Is(err, ErrEmptyTranscript)
}
