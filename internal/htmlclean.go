package internal

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf16"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// TelegramMessageLimit is the longest message Telegram accepts, counted in
// UTF-16 code units. Messages are split a little below it.
const (
	TelegramMessageLimit = 4096
	MessageSplitLimit    = 4000
)

// telegramTags are the formatting tags kept in model output
var telegramTags = []string{"b", "i", "u", "s", "strong", "em", "code", "pre"}

var (
	telegramPolicy = newTelegramPolicy()

	breakRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphRe  = regexp.MustCompile(`(?i)</p\s*>`)
	listItemRe   = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	listEndRe    = regexp.MustCompile(`(?i)</li\s*>`)
	headingRe    = regexp.MustCompile(`(?i)<h[1-6](?:\s[^>]*)?>`)
	headingEndRe = regexp.MustCompile(`(?i)</h[1-6]\s*>`)
	mdBoldRe     = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

func newTelegramPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(telegramTags...)
	return p
}

// SanitizeHTML turns model output into HTML Telegram accepts: block
// elements become line breaks, unsupported tags are removed with their
// content kept, and the remaining tags are balanced
func SanitizeHTML(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = breakRe.ReplaceAllString(s, "\n")
	s = paragraphRe.ReplaceAllString(s, "\n\n")
	s = listItemRe.ReplaceAllString(s, "• ")
	s = listEndRe.ReplaceAllString(s, "\n")
	s = headingRe.ReplaceAllString(s, "<b>")
	s = headingEndRe.ReplaceAllString(s, "</b>\n")
	s = mdBoldRe.ReplaceAllString(s, "<b>$1</b>")

	s = telegramPolicy.Sanitize(s)
	s = balanceTags(s)
	s = blankLinesRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// balanceTags drops closing tags that close nothing, closes inner tags
// when an outer one ends first, and closes whatever is still open at the end
func balanceTags(s string) string {
	var sb strings.Builder
	var stack []string

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			for i := len(stack) - 1; i >= 0; i-- {
				sb.WriteString(closeTag(stack[i]))
			}
			return sb.String()
		case html.TextToken:
			sb.Write(z.Raw())
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !slices.Contains(telegramTags, tag) {
				continue
			}
			stack = append(stack, tag)
			sb.WriteString(openTag(tag))
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			for i := len(stack) - 1; i >= idx; i-- {
				sb.WriteString(closeTag(stack[i]))
			}
			stack = stack[:idx]
		}
	}
}

func openTag(tag string) string  { return "<" + tag + ">" }
func closeTag(tag string) string { return "</" + tag + ">" }

// messagePiece is an unbreakable unit of a message: a tag or a run of text
type messagePiece struct {
	raw   string
	open  string
	close string
}

// SplitMessage cuts balanced HTML into parts of at most limit UTF-16 code units.
// Cuts prefer line breaks; tags open at a cut are closed at the end of one
// part and reopened at the start of the next.
func SplitMessage(s string, limit int) []string {
	if limit <= 0 {
		limit = MessageSplitLimit
	}
	if utf16Len(s) <= limit {
		if visibleText(s) == "" {
			return nil
		}
		return []string{s}
	}

	var (
		parts   []string
		stack   []string
		cur     strings.Builder
		curLen  int
		hasText bool
	)

	flush := func() {
		if hasText {
			out := cur.String()
			for i := len(stack) - 1; i >= 0; i-- {
				out += closeTag(stack[i])
			}
			parts = append(parts, strings.TrimSpace(out))
		}
		cur.Reset()
		curLen = 0
		hasText = false
		for _, tag := range stack {
			cur.WriteString(openTag(tag))
			curLen += len(openTag(tag))
		}
	}

	for _, p := range splitPieces(s, limit/2) {
		next := stack
		switch {
		case p.open != "":
			next = append(slices.Clone(stack), p.open)
		case p.close != "":
			if len(stack) == 0 || stack[len(stack)-1] != p.close {
				continue
			}
			next = stack[:len(stack)-1]
		}

		pieceLen := utf16Len(p.raw)
		if hasText && curLen+pieceLen+closingLen(next) > limit {
			flush()
		}

		cur.WriteString(p.raw)
		curLen += pieceLen
		if p.open == "" && p.close == "" && strings.TrimSpace(p.raw) != "" {
			hasText = true
		}
		stack = next
	}
	flush()

	return parts
}

func closingLen(stack []string) int {
	n := 0
	for _, tag := range stack {
		n += len(closeTag(tag))
	}
	return n
}

// splitPieces tokenizes balanced HTML into tags and text runs. Text is cut
// after every newline and runs longer than maxText are cut at spaces.
func splitPieces(s string, maxText int) []messagePiece {
	var pieces []messagePiece

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return pieces
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			pieces = append(pieces, messagePiece{raw: openTag(tag), open: tag})
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			pieces = append(pieces, messagePiece{raw: closeTag(tag), close: tag})
		case html.TextToken:
			text := string(z.Raw())
			for line := range strings.SplitAfterSeq(text, "\n") {
				for _, chunk := range cutText(line, maxText) {
					pieces = append(pieces, messagePiece{raw: chunk})
				}
			}
		}
	}
}

// cutText splits escaped text into runs of at most max UTF-16 code units,
// preferring spaces and never cutting an entity such as &amp; in half
func cutText(s string, max int) []string {
	if max <= 0 || utf16Len(s) <= max {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var out []string
	runes := []rune(s)
	for utf16Len(string(runes)) > max {
		cut := runesWithin(runes, max)
		if sp := lastIndexRune(runes[:cut], ' '); sp > cut/2 {
			cut = sp + 1
		}
		if amp := lastIndexRune(runes[:cut], '&'); amp >= 0 && lastIndexRune(runes[amp:cut], ';') < 0 && amp > 0 {
			cut = amp
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// utf16Len is the length of s as Telegram counts it
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// runesWithin returns how many leading runes fit into limit UTF-16 code
// units, at least one
func runesWithin(runes []rune, limit int) int {
	n := 0
	for i, r := range runes {
		n += max(utf16.RuneLen(r), 1)
		if n > limit {
			return max(i, 1)
		}
	}
	return len(runes)
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// visibleText returns s without tags, unescaped and trimmed
func visibleText(s string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// HTMLToMarkdown converts Telegram HTML into Markdown for terminals and MCP clients
func HTMLToMarkdown(s string) (string, error) {
	// newlines are significant in Telegram HTML
	md, err := htmltomarkdown.ConvertString(strings.ReplaceAll(s, "\n", "<br>"))
	if err != nil {
		return "", fmt.Errorf("converting html to markdown: %w", err)
	}
	return md, nil
}
