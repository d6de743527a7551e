package internal

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName is used for XDG directories and the env prefix
const AppName = "tldwbot"

// Config holds application settings
type Config struct {
	// Telegram
	TelegramToken string
	PollTimeout   int
	AllowedUsers  []int64

	// YouTube
	YouTubeAPIKey string
	Languages     []string
	Ytdlp         bool
	FetchTimeout  time.Duration

	// LLM
	LLMProvider        string
	LLMAPIKey          string
	LLMBaseURL         string
	LLMModel           string
	SummaryLanguage    string
	Translate          bool
	MaxTranscriptChars int
	SummaryTimeout     time.Duration
	Prompt             string

	// Network
	ProxyURL       string
	ProxyInsecure  bool
	RequestTimeout time.Duration

	// Cache
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int

	Verbose bool
	Quiet   bool
	LogDir  string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
}

//go:embed config.toml prompts/*.tmpl
var defaultFS embed.FS

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(dir, embedPath, description string) error {
	filePath := filepath.Join(dir, filepath.Base(embedPath))

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	defaultContent, err := defaultFS.ReadFile(embedPath)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	return nil
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompts writes the embedded prompt templates into
// configDir/prompts so they can be edited
func EnsureDefaultPrompts(configDir string) error {
	promptsDir := filepath.Join(configDir, "prompts")
	for _, name := range promptNames {
		if err := ensureDefaultFile(promptsDir, "prompts/"+name, "prompt template "+name); err != nil {
			return err
		}
	}
	return nil
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load()

	configDir := filepath.Join(xdg.ConfigHome, AppName)
	dataDir := filepath.Join(xdg.DataHome, AppName)
	cacheDir := filepath.Join(xdg.CacheHome, AppName)
	logDir := filepath.Join(xdg.StateHome, AppName, "logs")

	v := viper.New()

	v.SetDefault("poll_timeout", 30)
	v.SetDefault("allowed_users", []string{})
	v.SetDefault("languages", []string{"ru", "en"})
	v.SetDefault("ytdlp", true)
	v.SetDefault("fetch_timeout", time.Minute)
	v.SetDefault("llm_provider", ProviderOpenAI)
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_base_url", "")
	v.SetDefault("summary_language", "Russian")
	v.SetDefault("translate", false)
	v.SetDefault("max_transcript_chars", 60000)
	v.SetDefault("summary_timeout", 2*time.Minute)
	v.SetDefault("prompt", "")
	v.SetDefault("proxy_url", "")
	v.SetDefault("proxy_insecure", false)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", 6*time.Hour)
	v.SetDefault("cache_max_entries", 500)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_dir", logDir)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()

	// Names used by existing deployments. The first variable that is set wins.
	_ = v.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("youtube_api_key", "YOUTUBE_API_KEY")
	_ = v.BindEnv("llm_api_key", "DEEPSEEK_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm_base_url", "DEEPSEEK_API_BASE", "OPENAI_API_BASE")
	_ = v.BindEnv("llm_model", "DEEPSEEK_API_MODEL", "OPENAI_API_MODEL")
	_ = v.BindEnv("proxy_url", "PROXY_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		TelegramToken: v.GetString("telegram_bot_token"),
		PollTimeout:   v.GetInt("poll_timeout"),
		AllowedUsers:  parseUserIDs(v.GetStringSlice("allowed_users")),

		YouTubeAPIKey: v.GetString("youtube_api_key"),
		Languages:     normalizeLanguages(v.GetStringSlice("languages")),
		Ytdlp:         v.GetBool("ytdlp"),
		FetchTimeout:  v.GetDuration("fetch_timeout"),

		LLMProvider:        strings.ToLower(v.GetString("llm_provider")),
		LLMAPIKey:          v.GetString("llm_api_key"),
		LLMBaseURL:         v.GetString("llm_base_url"),
		LLMModel:           v.GetString("llm_model"),
		SummaryLanguage:    v.GetString("summary_language"),
		Translate:          v.GetBool("translate"),
		MaxTranscriptChars: v.GetInt("max_transcript_chars"),
		SummaryTimeout:     v.GetDuration("summary_timeout"),
		Prompt:             v.GetString("prompt"),

		ProxyURL:       v.GetString("proxy_url"),
		ProxyInsecure:  v.GetBool("proxy_insecure"),
		RequestTimeout: v.GetDuration("request_timeout"),

		RedisURL:        v.GetString("redis_url"),
		CacheTTL:        v.GetDuration("cache_ttl"),
		CacheMaxEntries: v.GetInt("cache_max_entries"),

		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		LogDir:  v.GetString("log_dir"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
	}

	if config.LLMModel == "" {
		config.LLMModel = DefaultModel(config.LLMProvider)
	}

	return config
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return "claude-3-5-haiku-latest"
	}
	return "gpt-4o-mini"
}

// IsUserAllowed reports whether a Telegram user may use the bot.
// An empty allow list admits everybody.
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func normalizeLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		// env values arrive as one comma separated string
		for part := range strings.SplitSeq(l, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return []string{"en"}
	}
	return out
}

func parseUserIDs(values []string) []int64 {
	var ids []int64
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			var id int64
			if _, err := fmt.Sscan(strings.TrimSpace(part), &id); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
