package analyzer

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style|noscript)\b[^>]*>.*?</(script|style|noscript)>`)
	commentPattern     = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	nonWordPattern     = regexp.MustCompile(`[^a-z0-9\s]`)
	sentenceSplit      = regexp.MustCompile(`[.!?]+`)
	silentEndingRe     = regexp.MustCompile(`(?:[^laeiouy]es|[^laeiouy]e|ed)$`)
	vowelGroupRe       = regexp.MustCompile(`[aeiouy]{1,2}`)
)

// StripMarkup removes tags, scripts, styles and comments from a markup
// string and collapses whitespace. Tags are replaced with a space so that
// adjacent block elements don't glue words together.
func StripMarkup(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	text := scriptStylePattern.ReplaceAllString(markup, " ")
	text = commentPattern.ReplaceAllString(text, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = decodeEntities(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Tokenize lowercases the text, strips punctuation and returns the words
// longer than two characters.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")
	fields := strings.Fields(cleaned)
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// Sentences splits plain text on sentence terminators, discarding empty
// fragments.
func Sentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WordCount counts whitespace-separated words in plain text. Unlike
// Tokenize it keeps short words, so it matches what a reader would count.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CountSyllables estimates the syllable count of a single English word.
// Words of three characters or fewer count as one syllable. Longer words
// drop a trailing silent e/ed/es after a consonant and a leading y, then
// count vowel groups.
func CountSyllables(word string) int {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return 0
	}
	if len(w) <= 3 {
		return 1
	}
	w = silentEndingRe.ReplaceAllString(w, "")
	w = strings.TrimPrefix(w, "y")
	groups := vowelGroupRe.FindAllString(w, -1)
	if len(groups) == 0 {
		return 1
	}
	return len(groups)
}

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	// Non-breaking spaces become plain spaces so whitespace collapsing and
	// word splitting treat them as separators.
	return strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
}
