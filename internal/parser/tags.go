// Package parser normalizes free-text vision model output into descriptions
// and tag sets.
package parser

import (
	"slices"
	"strings"
	"unicode"
)

// removedChars are stripped from anywhere inside a tag.
const removedChars = ";:,[](){}\\\"'"

// edgeChars are stripped only from the start and end of a tag.
const edgeChars = ". "

// stopWords carry no search value and are dropped from tag sets.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"to": {}, "too": {}, "of": {}, "in": {}, "for": {}, "on": {}, "at": {},
	"by": {}, "with": {}, "as": {}, "this": {}, "that": {}, "it": {}, "its": {},
	"be": {}, "was": {}, "were": {}, "not": {},
}

// IsStopWord reports whether w is dropped from tag sets.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// CleanDescription collapses newlines to spaces and trims.
func CleanDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// CleanTag lower-cases a token and strips punctuation until nothing changes,
// so nested forms like `"(word)."` reduce to `word`. Stop words clean to "".
func CleanTag(tag string) string {
	for {
		prev := tag

		tag = strings.ToLower(tag)
		tag = strings.Map(func(r rune) rune {
			if strings.ContainsRune(removedChars, r) {
				return -1
			}
			return r
		}, tag)
		tag = strings.Trim(tag, edgeChars)

		if tag == prev {
			break
		}
	}

	if IsStopWord(tag) {
		return ""
	}
	return tag
}

// CleanTags splits raw model output on commas and whitespace and returns the
// cleaned, deduplicated tags in lexicographic order. Never returns nil.
func CleanTags(raw string) []string {
	return CleanTagList(strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}))
}

// CleanTagList cleans each token, drops empties and stop words, then sorts
// and deduplicates.
func CleanTagList(tokens []string) []string {
	tags := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = CleanTag(t); t != "" {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}
