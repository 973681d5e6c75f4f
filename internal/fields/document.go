package fields

import (
	"strings"
	"unicode/utf8"
)

// Document is the normalized, read-only view of one OCR transcript.
type Document struct {
	// Text is the raw input with every carriage return removed.
	Text string
	// Lines holds the trimmed, non-blank lines of Text in their original order.
	Lines []string
}

// Normalize builds the text and line views used by every extractor.
// It never fails; empty input yields an empty line sequence.
func Normalize(raw string) *Document {
	text := strings.ReplaceAll(raw, "\r", "")

	parts := strings.FieldsFunc(text, isLineBreak)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return &Document{Text: text, Lines: lines}
}

// isLineBreak reports the same boundaries Unicode-aware line splitting uses
// (\n, vertical tab, form feed, file/group/record separators, NEL, LS, PS).
// Form feeds matter: poppler and tesseract emit them between pages.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// indexWithPrefix returns the index of the first line whose lowercase form
// starts with prefix, or -1.
func (d *Document) indexWithPrefix(prefix string) int {
	return indexWithPrefixFrom(d.Lines, 0, prefix)
}

func indexWithPrefixFrom(lines []string, from int, prefix string) int {
	for i := from; i < len(lines); i++ {
		if hasPrefixFold(lines[i], prefix) {
			return i
		}
	}
	return -1
}

// hasPrefixFold reports whether s, lowercased, starts with prefix. prefix
// must already be lowercase.
func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), prefix)
}

func hasAnyPrefixFold(s string, prefixes ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// afterColon returns the text following the first ':' in s and whether a
// colon was present.
func afterColon(s string) (string, bool) {
	_, rest, ok := strings.Cut(s, ":")
	return rest, ok
}

// joinFragments joins the non-empty, trimmed fragments with a single space.
func joinFragments(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// containsAnyFold reports whether the lowercase form of s contains any of the
// (lowercase) tokens as a substring.
func containsAnyFold(s string, tokens []string) bool {
	lower := strings.ToLower(s)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
