package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	typingInterval = 4 * time.Second
	// drainTimeout bounds how long shutdown waits for messages in flight
	drainTimeout = 30 * time.Second
)

// TelegramAPI is the part of *tgbotapi.BotAPI the bot uses
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// botLogger routes the library's log output through slog
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)), slog.String("component", "telegram"))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "telegram"))
}

// NewTelegramAPI connects to the Bot API. The HTTP client honours the
// proxy settings and outlives a long poll.
func NewTelegramAPI(config *Config, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{logger: logger}); err != nil {
		return nil, fmt.Errorf("setting telegram logger: %w", err)
	}

	timeout := config.RequestTimeout + time.Duration(config.PollTimeout)*time.Second
	httpClient, err := NewHTTPClient(config, timeout)
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPIWithClient(config.TelegramToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	api.Debug = config.Verbose

	logger.Info("authorized on telegram", slog.String("bot", api.Self.UserName))
	return api, nil
}

// Bot answers Telegram messages using the App pipeline
type Bot struct {
	api      TelegramAPI
	app      *App
	config   *Config
	requests *RequestLog
	logger   *slog.Logger
	wg       sync.WaitGroup
	drain    time.Duration
}

// NewBot creates a bot. requests may be nil.
func NewBot(api TelegramAPI, app *App, requests *RequestLog) *Bot {
	return &Bot{
		api:      api,
		app:      app,
		config:   app.Config(),
		requests: requests,
		logger:   app.Logger(),
		drain:    drainTimeout,
	}
}

// Run polls for updates until ctx is cancelled. Messages in flight then
// get up to the drain timeout to finish before their context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		b.logger.Warn("failed to register command menu", slog.Any("error", err))
	}

	handlerCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelHandlers()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", slog.Int("poll_timeout", b.config.PollTimeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wait(cancelHandlers)
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wait(cancelHandlers)
				return nil
			}
			if update.Message == nil {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.HandleMessage(handlerCtx, msg)
			}(update.Message)
		}
	}
}

// wait blocks until the handlers return, cancelling them once the drain
// timeout has passed
func (b *Bot) wait(cancelHandlers context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(b.drain):
		b.logger.Warn("messages still in flight, cancelling them", slog.Duration("waited", b.drain))
		cancelHandlers()
		<-done
	}
}

// HandleMessage reacts to one incoming message
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}

	var userID int64
	var username string
	if msg.From != nil {
		userID = msg.From.ID
		username = msg.From.UserName
	}

	if !b.config.IsUserAllowed(userID) {
		b.logger.Warn("message from user not on the allow list",
			slog.Int64("user_id", userID), slog.String("username", username))
		b.reply(msg, notAllowedText)
		return
	}

	input := ParseInput(msg.Text)
	b.logger.Info("message received",
		slog.Int64("user_id", userID),
		slog.String("username", username),
		slog.Int64("chat_id", msg.Chat.ID),
		slog.String("kind", input.Kind.String()),
		slog.String("text", Truncate(input.OriginalInput, 100)))

	switch input.Kind {
	case InputCommand:
		b.handleCommand(ctx, msg, input)
	case InputVideo:
		b.handleVideo(ctx, msg, input)
	case InputQuestion:
		b.handleQuestion(ctx, msg, input)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, input ParsedInput) {
	chatID := msg.Chat.ID

	switch input.Command {
	case "start":
		b.reply(msg, startText(msg.From))
	case "help":
		b.reply(msg, helpText)
	case "summary":
		session, ok := b.app.Session(ctx, chatID)
		switch {
		case !ok:
			b.reply(msg, noSessionText)
		case session.Summary == "":
			b.reply(msg, noSummaryText)
		default:
			b.reply(msg, summaryReply(session.Summary))
		}
	case "transcript":
		session, ok := b.app.Session(ctx, chatID)
		if !ok {
			b.reply(msg, noSessionText)
			return
		}
		b.sendTranscript(msg, session)
	case "reset":
		b.app.ResetSession(ctx, chatID)
		b.reply(msg, resetText)
	default:
		b.reply(msg, unknownCommandText)
	}
}

func (b *Bot) handleVideo(ctx context.Context, msg *tgbotapi.Message, input ParsedInput) {
	req := VideoRequest{
		RequestID: uuid.NewString(),
		ChatID:    msg.Chat.ID,
		URL:       input.OriginalInput,
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
		req.Username = msg.From.UserName
	}
	if req.Username == "" {
		req.Username = "unknown"
	}
	b.requests.Log(ctx, req)

	logger := b.logger.With(slog.String("request_id", req.RequestID))

	if input.Error != nil {
		logger.Warn("could not extract video id", slog.String("text", Truncate(input.OriginalInput, 100)))
		b.reply(msg, invalidLinkText)
		return
	}

	b.reply(msg, processingText)
	stop := b.keepTyping(ctx, msg.Chat.ID)
	defer stop()

	start := time.Now()
	session, err := b.app.ProcessVideo(ctx, msg.Chat.ID, input.NormalizedURL)
	if err != nil {
		logger.Error("failed to process video",
			slog.String("video_id", input.VideoID), slog.Any("error", err))
		b.replyError(ctx, msg, err, videoErrorText)
		return
	}

	logger.Info("summary ready",
		slog.String("video_id", session.VideoID),
		slog.Int("transcript_chars", len(session.Transcript)),
		slog.Duration("took", time.Since(start)))

	stop()
	b.reply(msg, summaryReply(session.Summary))
}

func (b *Bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message, input ParsedInput) {
	stop := b.keepTyping(ctx, msg.Chat.ID)
	defer stop()

	answer, err := b.app.Ask(ctx, msg.Chat.ID, input.OriginalInput)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			b.logger.Error("failed to answer question",
				slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))
		}
		b.replyError(ctx, msg, err, questionErrorText)
		return
	}

	stop()
	b.reply(msg, answerReply(answer))
}

// replyError maps known failures to their messages and everything else
// to generic(err)
func (b *Bot) replyError(ctx context.Context, msg *tgbotapi.Message, err error, generic func(error) string) {
	switch {
	case errors.Is(err, ErrInvalidVideoURL):
		b.reply(msg, invalidLinkText)
	case IsNoCaptions(err):
		b.reply(msg, noCaptionsText)
	case errors.Is(err, ErrNoSession):
		b.reply(msg, noSessionText)
	case ctx.Err() != nil:
		// shutting down
	default:
		b.reply(msg, generic(err))
	}
}

func (b *Bot) sendTranscript(msg *tgbotapi.Message, session *Session) {
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  session.VideoID + ".txt",
		Bytes: []byte(session.Transcript),
	})
	if session.Title != "" {
		doc.Caption = "<b>" + escape(Truncate(session.Title, 200)) + "</b>"
		doc.ParseMode = tgbotapi.ModeHTML
	}
	doc.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("failed to send transcript", slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))
		b.reply(msg, questionErrorText(err))
	}
}

// keepTyping shows the typing indicator until the returned func is called
func (b *Bot) keepTyping(ctx context.Context, chatID int64) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				b.logger.Debug("failed to send typing action", slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// reply sends HTML text as one or more messages, the first replying to msg.
// A part Telegram refuses to parse is resent as plain text.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	for i, part := range SplitMessage(text, MessageSplitLimit) {
		m := tgbotapi.NewMessage(msg.Chat.ID, part)
		m.ParseMode = tgbotapi.ModeHTML
		m.DisableWebPagePreview = true
		if i == 0 {
			m.ReplyToMessageID = msg.MessageID
		}

		if _, err := b.api.Send(m); err != nil {
			b.logger.Warn("failed to send html message, retrying as plain text",
				slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))

			m.Text = visibleText(part)
			m.ParseMode = ""
			if _, err := b.api.Send(m); err != nil {
				b.logger.Error("failed to send message",
					slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))
				return
			}
		}
	}
}
