package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// AddLLMFlags adds flags related to summaries and answers
func AddLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Model to use for summaries and answers")
	cmd.Flags().String("provider", "", "LLM provider (openai or anthropic)")
	cmd.Flags().StringP("prompt", "p", "", "Custom summary prompt (string or file path)")
	cmd.Flags().StringP("language", "l", "", "Language of the summary")
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}
	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if IsLikelyFilePath(prompt) && FileExists(prompt) {
		app.logger.Debug("using custom prompt file", slog.String("path", prompt))
	} else {
		app.logger.Debug("using custom prompt string")
	}

	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	return nil
}

// ValidateLLMRequirements validates API key, provider and model from command flags and config
func ValidateLLMRequirements(cmd *cobra.Command, config *Config) error {
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		if provider != config.LLMProvider && !cmd.Flags().Changed("model") {
			config.LLMModel = DefaultModel(provider)
		}
		config.LLMProvider = provider
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		config.LLMModel = model
	}
	if language, _ := cmd.Flags().GetString("language"); language != "" {
		config.SummaryLanguage = language
	}
	return ValidateLLMConfig(config)
}

// ValidateLLMConfig checks the settings needed to talk to the model
func ValidateLLMConfig(config *Config) error {
	switch config.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported llm provider %q (supported: %s, %s)", config.LLMProvider, ProviderOpenAI, ProviderAnthropic)
	}
	if err := ValidateAPIKey(config.LLMAPIKey); err != nil {
		return err
	}
	if config.LLMModel == "" {
		return errors.New("llm model is required - set llm_model in config.toml or DEEPSEEK_API_MODEL/OPENAI_API_MODEL")
	}
	return nil
}

// ValidateTelegramRequirements checks everything the bot needs besides the LLM
func ValidateTelegramRequirements(config *Config) error {
	if config.TelegramToken == "" {
		return errors.New("telegram bot token is required - set TELEGRAM_BOT_TOKEN")
	}
	return ValidateLLMConfig(config)
}

// ValidateAPIKey checks if the LLM API key is set and returns a standardized error if not
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return errors.New("LLM API key is required - set llm_api_key in config.toml or DEEPSEEK_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY")
	}
	return nil
}
