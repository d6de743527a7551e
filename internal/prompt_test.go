package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptManagerDefaults(t *testing.T) {
	pm := NewPromptManager("", "")

	system, err := pm.Render(PromptSystem, PromptData{Language: "Russian"})
	require.NoError(t, err)
	assert.Contains(t, system, "Always write in Russian.")

	summary, err := pm.Render(PromptSummary, PromptData{
		Title:      "Go Concurrency",
		Channel:    "GopherCon",
		Transcript: "goroutines and channels",
		Truncated:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "Title: Go Concurrency")
	assert.Contains(t, summary, "Channel: GopherCon")
	assert.NotContains(t, summary, "Description:")
	assert.Contains(t, summary, "cut because of its length")
	assert.Contains(t, summary, "goroutines and channels")

	answer, err := pm.Render(PromptAnswer, PromptData{Transcript: "t", Question: "why?"})
	require.NoError(t, err)
	assert.Contains(t, answer, "Question: why?")
	assert.NotContains(t, answer, "cut because")

	translate, err := pm.Render(PromptTranslate, PromptData{Language: "English", Text: "привет"})
	require.NoError(t, err)
	assert.Contains(t, translate, "into English")
	assert.Contains(t, translate, "привет")
}

func TestPromptManagerOverrides(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, EnsureDirs(filepath.Join(configDir, "prompts")))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "prompts", PromptAnswer), []byte("Q={{.Question}}"), 0644))

	pm := NewPromptManager(configDir, "")
	out, err := pm.Render(PromptAnswer, PromptData{Question: "what"})
	require.NoError(t, err)
	assert.Equal(t, "Q=what", out)

	// summary as a string
	pm = NewPromptManager(configDir, "tldr in {{.Language}}: {{.Transcript}}")
	out, err = pm.Render(PromptSummary, PromptData{Language: "English", Transcript: "text"})
	require.NoError(t, err)
	assert.Equal(t, "tldr in English: text", out)

	// summary from a file
	file := filepath.Join(t.TempDir(), "my.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("FILE {{.Title}}"), 0644))
	pm = NewPromptManager(configDir, file)
	out, err = pm.Render(PromptSummary, PromptData{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "FILE x", out)
}

func TestPromptManagerErrors(t *testing.T) {
	pm := NewPromptManager("", "{{.Missing")
	_, err := pm.Render(PromptSummary, PromptData{})
	assert.Error(t, err)

	_, err = NewPromptManager("", "").Render("nope.tmpl", PromptData{})
	assert.Error(t, err)
}

func TestEnsureDefaultPrompts(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, EnsureDefaultPrompts(configDir))
	for _, name := range promptNames {
		assert.FileExists(t, filepath.Join(configDir, "prompts", name))
	}

	// existing files are left alone
	custom := filepath.Join(configDir, "prompts", PromptSystem)
	require.NoError(t, os.WriteFile(custom, []byte("mine"), 0644))
	require.NoError(t, EnsureDefaultPrompts(configDir))
	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestIsLikelyFilePath(t *testing.T) {
	assert.True(t, IsLikelyFilePath("./prompt.txt"))
	assert.True(t, IsLikelyFilePath("summary.tmpl"))
	assert.False(t, IsLikelyFilePath("Summarize {{.Transcript}} please"))
}
