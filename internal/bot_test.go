package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTelegram records everything the bot sends
type fakeTelegram struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  func(c tgbotapi.Chattable) error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTelegram) Messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTelegram) Texts() []string {
	var out []string
	for _, m := range f.Messages() {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeTelegram) Requests() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.requests...)
}

func newTestBot(t *testing.T, config *Config, llm LLMClient) (*Bot, *fakeTelegram, *bytes.Buffer) {
	t.Helper()
	transcripts, metadata := talkSources()
	app := newTestApp(t, config, llm, []TranscriptSource{transcripts}, []MetadataSource{metadata})

	api := newFakeTelegram()
	var requests bytes.Buffer
	return NewBot(api, app, NewRequestLog(&requests)), api, &requests
}

func message(id int, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: id,
		From:      &tgbotapi.User{ID: 42, FirstName: "Ann & Bob", UserName: "annbob"},
		Chat:      &tgbotapi.Chat{ID: 100},
		Text:      text,
	}
}

func TestBotCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"start greets by mention", "/start", []string{`<a href="tg://user?id=42">Ann &amp; Bob</a>`, "/summary"}},
		{"help", "/help", []string{helpText}},
		{"group chat mention", "/help@tldwbot", []string{helpText}},
		{"summary without video", "/summary", []string{noSessionText}},
		{"transcript without video", "/transcript", []string{noSessionText}},
		{"reset", "/reset", []string{resetText}},
		{"unknown", "/foo", []string{unknownCommandText}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, api, _ := newTestBot(t, testConfig(), &fakeLLM{})
			bot.HandleMessage(context.Background(), message(1, tt.text))

			msgs := api.Messages()
			require.Len(t, msgs, 1)
			for _, want := range tt.want {
				assert.Contains(t, msgs[0].Text, want)
			}
			assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)
			assert.Equal(t, 1, msgs[0].ReplyToMessageID)
			assert.True(t, msgs[0].DisableWebPagePreview)
		})
	}
}

func TestBotIgnoresEmptyMessages(t *testing.T) {
	bot, api, _ := newTestBot(t, testConfig(), &fakeLLM{})
	ctx := context.Background()

	bot.HandleMessage(ctx, nil)
	bot.HandleMessage(ctx, message(1, "   "))
	bot.HandleMessage(ctx, &tgbotapi.Message{Text: "/help"})

	assert.Empty(t, api.Messages())
}

func TestBotAllowList(t *testing.T) {
	config := testConfig()
	config.AllowedUsers = []int64{7}
	bot, api, requests := newTestBot(t, config, &fakeLLM{})

	bot.HandleMessage(context.Background(), message(1, "https://youtu.be/"+testVideoID))

	assert.Equal(t, []string{notAllowedText}, api.Texts())
	assert.Empty(t, requests.String())
}

func TestBotVideoFlow(t *testing.T) {
	llm := &fakeLLM{replies: []string{"<b>Main topic</b>: goroutines"}}
	bot, api, requests := newTestBot(t, testConfig(), llm)
	ctx := context.Background()

	bot.HandleMessage(ctx, message(5, "look at this https://www.youtube.com/watch?v="+testVideoID+"&t=42"))

	msgs := api.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, processingText, msgs[0].Text)
	assert.Equal(t, 5, msgs[0].ReplyToMessageID)
	assert.Contains(t, msgs[1].Text, "<b>Main topic</b>: goroutines")
	assert.Contains(t, msgs[1].Text, followUpHint)

	var typing bool
	for _, r := range api.Requests() {
		if action, ok := r.(tgbotapi.ChatActionConfig); ok && action.Action == tgbotapi.ChatTyping {
			typing = true
		}
	}
	assert.True(t, typing, "typing indicator should be shown")

	var record map[string]any
	require.NoError(t, json.Unmarshal(requests.Bytes(), &record))
	assert.Equal(t, "video request", record["msg"])
	assert.Equal(t, "annbob", record["username"])
	assert.Equal(t, float64(42), record["user_id"])
	assert.Equal(t, float64(100), record["chat_id"])
	assert.Contains(t, record["url"], testVideoID)
	assert.NotEmpty(t, record["request_id"])

	// follow-up question uses the stored transcript
	llm.reply = func(system, prompt string) (string, error) { return "Channels connect goroutines.", nil }
	bot.HandleMessage(ctx, message(6, "What are channels for?"))

	msgs = api.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, answerReply("Channels connect goroutines."), msgs[2].Text)
	assert.Equal(t, 6, msgs[2].ReplyToMessageID)

	calls := llm.Calls()
	assert.Contains(t, calls[len(calls)-1].prompt, "Question: What are channels for?")

	// summary again
	bot.HandleMessage(ctx, message(7, "/summary"))
	msgs = api.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, msgs[1].Text, msgs[3].Text)
}

func TestBotTranscriptDocument(t *testing.T) {
	bot, api, _ := newTestBot(t, testConfig(), &fakeLLM{})
	ctx := context.Background()

	bot.HandleMessage(ctx, message(1, "https://youtu.be/"+testVideoID))
	bot.HandleMessage(ctx, message(2, "/transcript"))

	api.mu.Lock()
	defer api.mu.Unlock()
	doc, ok := api.sent[len(api.sent)-1].(tgbotapi.DocumentConfig)
	require.True(t, ok, "transcript should be sent as a document")

	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, testVideoID+".txt", file.Name)
	assert.Contains(t, string(file.Bytes), "горутинах")
	assert.Equal(t, "<b>Go Concurrency</b>", doc.Caption)
	assert.Equal(t, 2, doc.ReplyToMessageID)
}

func TestBotInvalidLink(t *testing.T) {
	llm := &fakeLLM{}
	bot, api, requests := newTestBot(t, testConfig(), llm)

	bot.HandleMessage(context.Background(), message(1, "https://www.youtube.com/feed/trending"))

	assert.Equal(t, []string{invalidLinkText}, api.Texts())
	assert.Empty(t, llm.Calls())
	assert.Contains(t, requests.String(), "trending", "invalid links are still recorded")
}

func TestBotQuestionWithoutVideo(t *testing.T) {
	llm := &fakeLLM{}
	bot, api, _ := newTestBot(t, testConfig(), llm)

	bot.HandleMessage(context.Background(), message(1, "What is this video about?"))

	assert.Equal(t, []string{noSessionText}, api.Texts())
	assert.Empty(t, llm.Calls())
}

func TestBotNoCaptions(t *testing.T) {
	metadata := &fakeSource{name: "innertube", metadata: &VideoMetadata{CaptionsChecked: true}}
	transcripts := &fakeSource{name: "innertube"}
	app := newTestApp(t, testConfig(), &fakeLLM{}, []TranscriptSource{transcripts}, []MetadataSource{metadata})
	api := newFakeTelegram()
	bot := NewBot(api, app, nil)

	bot.HandleMessage(context.Background(), message(1, "https://youtu.be/"+testVideoID))

	assert.Equal(t, []string{processingText, noCaptionsText}, api.Texts())
}

func TestBotSummaryError(t *testing.T) {
	llm := &fakeLLM{reply: func(system, prompt string) (string, error) {
		return "", errors.New("quota <exceeded>")
	}}
	bot, api, _ := newTestBot(t, testConfig(), llm)
	ctx := context.Background()

	bot.HandleMessage(ctx, message(1, "https://youtu.be/"+testVideoID))

	texts := api.Texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "An error occurred while processing the video")
	assert.Contains(t, texts[1], "quota &lt;exceeded&gt;")

	// the transcript was kept, so the summary is reported as missing
	bot.HandleMessage(ctx, message(2, "/summary"))
	assert.Equal(t, noSummaryText, api.Texts()[2])
}

func TestBotSplitsLongReplies(t *testing.T) {
	long := strings.Repeat("Goroutines are cheap. ", 400)
	llm := &fakeLLM{replies: []string{long}}
	bot, api, _ := newTestBot(t, testConfig(), llm)

	bot.HandleMessage(context.Background(), message(3, "https://youtu.be/"+testVideoID))

	msgs := api.Messages()
	require.Greater(t, len(msgs), 2)
	assert.Equal(t, 3, msgs[1].ReplyToMessageID)
	for _, m := range msgs[2:] {
		assert.Zero(t, m.ReplyToMessageID)
	}
	for _, m := range msgs {
		assert.LessOrEqual(t, len([]rune(m.Text)), MessageSplitLimit)
	}
}

func TestBotFallsBackToPlainText(t *testing.T) {
	bot, api, _ := newTestBot(t, testConfig(), &fakeLLM{})
	api.sendErr = func(c tgbotapi.Chattable) error {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ParseMode == tgbotapi.ModeHTML {
			return errors.New("Bad Request: can't parse entities")
		}
		return nil
	}

	bot.HandleMessage(context.Background(), message(1, "/summary"))

	msgs := api.Messages()
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].ParseMode)
	assert.Equal(t, "❌ Send me a YouTube video link first!", msgs[0].Text)
}

func TestBotRun(t *testing.T) {
	bot, api, _ := newTestBot(t, testConfig(), &fakeLLM{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{UpdateID: 1}
	api.updates <- tgbotapi.Update{UpdateID: 2, Message: message(1, "/help")}

	require.Eventually(t, func() bool { return len(api.Messages()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}

	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()

	_, ok := api.Requests()[0].(tgbotapi.SetMyCommandsConfig)
	assert.True(t, ok, "command menu should be registered first")
}

func TestBotRunFinishesMessagesInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	llm := &fakeLLM{reply: func(system, prompt string) (string, error) {
		close(started)
		<-release
		return "late summary", nil
	}}
	bot, api, _ := newTestBot(t, testConfig(), llm)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: message(1, "https://youtu.be/"+testVideoID)}
	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned before the message was handled")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}

	texts := api.Texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "late summary")
}

func TestBotRunCancelsAfterDrainTimeout(t *testing.T) {
	blocking := LLMClientFunc(func(ctx context.Context, model, system, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	bot, api, _ := newTestBot(t, testConfig(), blocking)
	bot.drain = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: message(1, "https://youtu.be/"+testVideoID)}
	require.Eventually(t, func() bool { return len(api.Texts()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}

	// cancelled work is not reported as an error to the chat
	assert.Equal(t, []string{processingText}, api.Texts())
}
