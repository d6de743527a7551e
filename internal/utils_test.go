package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with params first", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with timestamp", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ?feature=shared", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"link inside a sentence", "look at this https://youtu.be/dQw4w9WgXcQ it's great", "dQw4w9WgXcQ"},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare id with spaces", "  dQw4w9WgXcQ \n", "dQw4w9WgXcQ"},
		{"id with dash and underscore", "https://youtu.be/a-b_c-d_e-f", "a-b_c-d_e-f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoIDInvalid(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"https://www.youtube.com/",
		"https://www.youtube.com/channel/UC1234567890",
		"https://youtu.be/short",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQextra",
		"https://example.com/watch?v=dQw4w9WgXcQ",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ExtractVideoID(input)
			require.ErrorIs(t, err, ErrInvalidVideoURL)
		})
	}
}

func TestParseArg(t *testing.T) {
	url, id, err := ParseArg("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", id)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", url)

	_, _, err = ParseArg("not a video")
	assert.ErrorIs(t, err, ErrInvalidVideoURL)
}

func TestIsLikelyCommand(t *testing.T) {
	assert.True(t, IsLikelyCommand("sumarize"))
	assert.True(t, IsLikelyCommand("paht"))
	assert.False(t, IsLikelyCommand("dQw4w9WgXcQ"))
	assert.False(t, IsLikelyCommand("youtu.be/x"))
	assert.False(t, IsLikelyCommand("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 8))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "привет...", Truncate("привет, мир", 9))
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, SplitText("   ", 10))
	assert.Equal(t, []string{"a b", "c d"}, SplitText("a b c d", 3))
	assert.Equal(t, []string{"abcdef", "gh"}, SplitText("abcdef gh", 3))
	assert.Equal(t, []string{"one two three"}, SplitText("one\ntwo   three", 100))

	long := strings.Repeat("слово ", 1000)
	parts := SplitText(long, 100)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 100)
	}
	assert.Equal(t, strings.TrimSpace(long), strings.Join(parts, " "))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	a := root + "/a/b"
	c := root + "/c"

	require.NoError(t, EnsureDirs(a, "", c))
	assert.True(t, FileExists(a))
	assert.True(t, FileExists(c))
}
