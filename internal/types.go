package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidVideoURL = errors.New("not a valid YouTube video link")
	ErrNoCaptions      = errors.New("no captions available")
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrNoSession       = errors.New("no video in this chat yet")
	ErrEmptyCompletion = errors.New("model returned no content")
	ErrNotAllowed      = errors.New("user is not allowed to use this bot")
)

// InputKind represents what a chat message asks for
type InputKind int

const (
	InputUnknown InputKind = iota
	InputVideo
	InputQuestion
	InputCommand
)

// String returns a human-readable representation of the input kind
func (k InputKind) String() string {
	switch k {
	case InputVideo:
		return "video"
	case InputQuestion:
		return "question"
	case InputCommand:
		return "command"
	default:
		return "unknown"
	}
}

// ParsedInput is the classification of one chat message
type ParsedInput struct {
	Kind          InputKind
	OriginalInput string
	Command       string
	Args          string
	VideoID       string
	NormalizedURL string
	Error         error
}

// IsValid returns true if the input can be acted upon
func (p *ParsedInput) IsValid() bool {
	return p.Error == nil && p.Kind != InputUnknown
}

// String returns a formatted representation of the parsed input
func (p *ParsedInput) String() string {
	if p.Error != nil {
		return fmt.Sprintf("ParsedInput{kind=%s, input=%q, error=%v}", p.Kind, p.OriginalInput, p.Error)
	}
	switch p.Kind {
	case InputVideo:
		return fmt.Sprintf("ParsedInput{kind=%s, id=%s, url=%s}", p.Kind, p.VideoID, p.NormalizedURL)
	case InputCommand:
		return fmt.Sprintf("ParsedInput{kind=%s, command=%s}", p.Kind, p.Command)
	}
	return fmt.Sprintf("ParsedInput{kind=%s, input=%q}", p.Kind, p.OriginalInput)
}

// ParseInput classifies a chat message. Any text mentioning a YouTube host
// is treated as a link, even when no video ID can be pulled out of it, so
// the user gets an error instead of an answer about the previous video.
func ParseInput(text string) ParsedInput {
	text = strings.TrimSpace(text)
	p := ParsedInput{OriginalInput: text}

	switch {
	case text == "":
		p.Kind = InputUnknown
	case strings.HasPrefix(text, "/"):
		p.Kind = InputCommand
		name, args, _ := strings.Cut(text[1:], " ")
		// "/start@MyBot" in group chats
		name, _, _ = strings.Cut(name, "@")
		p.Command = strings.ToLower(name)
		p.Args = strings.TrimSpace(args)
	case ContainsYouTubeLink(text):
		p.Kind = InputVideo
		id, err := ExtractVideoID(text)
		if err != nil {
			p.Error = err
			break
		}
		p.VideoID = id
		p.NormalizedURL = WatchURL(id)
	default:
		p.Kind = InputQuestion
	}

	return p
}
