package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const ellipsis = "..."

// bbcodeTag matches a single bracketed markup token such as [b], [/url] or [img=1].
var bbcodeTag = regexp.MustCompile(`\[[^\]]*\]`)

// Truncate shortens text to at most limit bytes, ending in "...". It prefers to cut
// at the last space of the kept prefix when that space sits at or beyond 70% of
// limit, and never splits a UTF-8 sequence.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	if limit < len(ellipsis) {
		return text[:runeFloor(text, limit)]
	}

	cut := runeFloor(text, limit-len(ellipsis))
	prefix := text[:cut]
	if space := strings.LastIndexByte(prefix, ' '); space >= 0 && space*10 >= limit*7 {
		return text[:space] + ellipsis
	}
	return prefix + ellipsis
}

// runeFloor moves i back to the start of the rune containing it.
func runeFloor(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// StripTags removes HTML/XML tags and comments, keeping text exactly as written.
// Entities are left encoded.
func StripTags(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or a read error a strings.Reader never produces.
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// CleanContent turns a raw forum body into plain text: bracket markup removed,
// tags stripped, entities decoded, surrounding whitespace trimmed.
func CleanContent(raw string) string {
	s := bbcodeTag.ReplaceAllString(raw, "")
	s = StripTags(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}
