// Package richtext renders rich HTML bodies to plain text for word counting.
package richtext

import (
	"strings"

	"golang.org/x/net/html"
)

// Renderer strips markup using the streaming HTML tokenizer, so malformed
// fragments degrade gracefully instead of failing.
type Renderer struct{}

// PlainText returns the visible text of an HTML fragment with tags removed
// and whitespace collapsed. Script and style contents are skipped.
func (Renderer) PlainText(body string) string {
	if !strings.ContainsRune(body, '<') {
		return strings.Join(strings.Fields(body), " ")
	}

	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var parts []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.Fields(string(tokenizer.Text())); len(text) > 0 {
				parts = append(parts, strings.Join(text, " "))
			}
		}
	}
}

func skippedTag(name string) bool {
	return name == "script" || name == "style"
}
