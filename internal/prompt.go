package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Prompt template names
const (
	PromptSystem    = "system.tmpl"
	PromptSummary   = "summary.tmpl"
	PromptAnswer    = "answer.tmpl"
	PromptTranslate = "translate.tmpl"
)

var promptNames = []string{PromptSystem, PromptSummary, PromptAnswer, PromptTranslate}

// PromptData for template injection
type PromptData struct {
	Title       string
	Channel     string
	Description string
	Transcript  string
	// Truncated is set when Transcript was shortened to fit the model
	Truncated bool
	Question  string
	Language  string
	// Text is the fragment to translate
	Text string
}

// PromptManager handles loading and processing prompt templates.
// Templates are looked up in configDir/prompts and fall back to the
// embedded defaults; the summary template can be replaced by a string or file.
type PromptManager struct {
	configDir     string
	summaryFile   string
	summaryString string
}

// NewPromptManager creates a new prompt manager
func NewPromptManager(configDir, summarySetting string) *PromptManager {
	pm := &PromptManager{
		configDir: configDir,
	}

	if summarySetting != "" {
		if IsLikelyFilePath(summarySetting) && FileExists(summarySetting) {
			pm.summaryFile = summarySetting
		} else {
			pm.summaryString = summarySetting
		}
	}

	return pm
}

// Render executes the named template
func (pm *PromptManager) Render(name string, data PromptData) (string, error) {
	content, err := pm.load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

func (pm *PromptManager) load(name string) (string, error) {
	if name == PromptSummary {
		if pm.summaryString != "" {
			return pm.summaryString, nil
		}
		if pm.summaryFile != "" {
			content, err := os.ReadFile(pm.summaryFile)
			if err != nil {
				return "", fmt.Errorf("reading prompt template: %w", err)
			}
			return string(content), nil
		}
	}

	if pm.configDir != "" {
		path := filepath.Join(pm.configDir, "prompts", name)
		if FileExists(path) {
			content, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("reading prompt template: %w", err)
			}
			return string(content), nil
		}
	}

	content, err := defaultFS.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("unknown prompt template %s: %w", name, err)
	}
	return string(content), nil
}

// IsLikelyFilePath uses heuristics to determine if a string is likely a file path
func IsLikelyFilePath(s string) bool {
	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	if strings.Contains(s, ".txt") || strings.Contains(s, ".md") ||
		strings.Contains(s, ".template") || strings.Contains(s, ".tmpl") {
		return true
	}

	// If it's longer than 200 characters, it's likely a prompt string
	if len(s) > 200 {
		return false
	}

	return !strings.Contains(s, " ") && !strings.Contains(s, "\n")
}
