package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMClient sends one prompt to a chat model and returns its text reply
type LLMClient interface {
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}

// NewLLMClient creates the client for a provider
func NewLLMClient(provider, apiKey, baseURL string, httpClient *http.Client) (LLMClient, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(apiKey, baseURL, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, baseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", provider)
	}
}

// AI handles model calls for summaries, answers and translation
type AI struct {
	client     LLMClient
	provider   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	timeout    time.Duration
	logger     *slog.Logger

	clientOnce sync.Once
	clientErr  error
}

// NewAI creates an AI processor around an existing client
func NewAI(client LLMClient, model string, timeout time.Duration, logger *slog.Logger) *AI {
	if logger == nil {
		logger = slog.Default()
	}
	return &AI{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// NewAIFromConfig creates an AI processor that builds its client on first
// use, so commands that never call the model do not need an API key
func NewAIFromConfig(config *Config, httpClient *http.Client, logger *slog.Logger) *AI {
	ai := NewAI(nil, config.LLMModel, config.SummaryTimeout, logger)
	ai.provider = config.LLMProvider
	ai.apiKey = config.LLMAPIKey
	ai.baseURL = config.LLMBaseURL
	ai.httpClient = httpClient
	return ai
}

// Model returns the model name used for requests
func (ai *AI) Model() string {
	return ai.model
}

// ensureClient initializes the client if needed
func (ai *AI) ensureClient() error {
	ai.clientOnce.Do(func() {
		if ai.client != nil {
			return
		}
		if err := ValidateAPIKey(ai.apiKey); err != nil {
			ai.clientErr = err
			return
		}
		ai.client, ai.clientErr = NewLLMClient(ai.provider, ai.apiKey, ai.baseURL, ai.httpClient)
	})
	return ai.clientErr
}

// Summary asks the model for a summary of a prepared prompt
func (ai *AI) Summary(ctx context.Context, system, prompt string) (string, error) {
	return ai.complete(ctx, "summary", system, prompt)
}

// Answer asks the model a question about a prepared prompt
func (ai *AI) Answer(ctx context.Context, system, prompt string) (string, error) {
	return ai.complete(ctx, "answer", system, prompt)
}

// Translate asks the model to translate a prepared prompt
func (ai *AI) Translate(ctx context.Context, prompt string) (string, error) {
	return ai.complete(ctx, "translate", "", prompt)
}

func (ai *AI) complete(ctx context.Context, kind, system, prompt string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", err
	}

	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := ai.client.Complete(ctx, ai.model, system, prompt)
	if err != nil {
		return "", fmt.Errorf("creating %s completion: %w", kind, err)
	}

	ai.logger.Debug("completion finished",
		slog.String("kind", kind),
		slog.String("model", ai.model),
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("reply_chars", len(content)),
		slog.Duration("took", time.Since(start)))

	return content, nil
}
