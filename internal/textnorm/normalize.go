// Package textnorm reduces free ticket text to the lower-case, punctuation-free
// form that rule matchers are written against.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var urlRe = regexp.MustCompile(`(?i)\b(?:https?://|ftp://|www\.)\S+`)

// Normalize strips markup and URLs, replaces every character that is not a
// letter, digit or whitespace with a space, collapses whitespace runs and
// lower-cases the result. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := raw
	if strings.ContainsAny(text, "<&") {
		text = stripMarkup(text)
	}
	text = urlRe.ReplaceAllString(text, " ")

	folded := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(folded), " ")
}

// stripMarkup keeps only the text content of an HTML/XML fragment. Entities
// are decoded and script/style bodies dropped. A '<' that does not open a
// closed <...> span is plain text, as in "count<limit".
func stripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(escapeBareLT(s)))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
}

// escapeBareLT rewrites every '<' that has no '>' before the next '<' (or
// the end of input) as "&lt;" so the tokenizer keeps the text after it.
func escapeBareLT(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			b.WriteByte(s[i])
			continue
		}
		rest := s[i+1:]
		closeAt := strings.IndexByte(rest, '>')
		nextOpen := strings.IndexByte(rest, '<')
		if closeAt >= 0 && (nextOpen < 0 || closeAt < nextOpen) {
			b.WriteByte('<')
		} else {
			b.WriteString("&lt;")
		}
	}
	return b.String()
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// Truncate shortens s to at most max runes, appending "..." when text was cut.
// Whitespace is collapsed first so excerpts stay on one line.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
