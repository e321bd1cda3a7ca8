// clean.go strips assistant output down to plain tweetable text. Assistant
// replies arrive as markdown with file-search citation markers; none of that
// survives on the timeline, so everything structural is removed before the
// reply is length-bounded.
package ai

import (
	"regexp"
	"strings"
)

var (
	// Footnote-style citations like 【4:0†notes.txt】 emitted by file search.
	citationRe   = regexp.MustCompile(`【\d+:\d+†[^】]+】`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	numberedRe   = regexp.MustCompile(`\d+\.\s+`)
	bulletRe     = regexp.MustCompile(`[-•]\s+`)
	codeBlockRe  = regexp.MustCompile("```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	headingRe    = regexp.MustCompile(`#+\s+`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	blockquoteRe = regexp.MustCompile(`>\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanResponse removes citation markers and markdown structure from an
// assistant reply and collapses all whitespace runs to single spaces.
func CleanResponse(text string) string {
	if text == "" {
		return ""
	}

	cleaned := citationRe.ReplaceAllString(text, "")
	cleaned = boldRe.ReplaceAllString(cleaned, "$1")
	cleaned = italicRe.ReplaceAllString(cleaned, "$1")
	cleaned = numberedRe.ReplaceAllString(cleaned, "")
	cleaned = bulletRe.ReplaceAllString(cleaned, "")
	cleaned = codeBlockRe.ReplaceAllString(cleaned, "")
	cleaned = inlineCodeRe.ReplaceAllString(cleaned, "$1")
	cleaned = headingRe.ReplaceAllString(cleaned, "")
	cleaned = linkRe.ReplaceAllString(cleaned, "$1")
	cleaned = blockquoteRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

// Truncate bounds text to max runes, replacing the tail with "..." when it
// does not fit. Runes, not bytes: the platform counts characters.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
