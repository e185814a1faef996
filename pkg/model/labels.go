package model

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var labelSeparators = regexp.MustCompile(`[_\-.\s]+`)

// DefaultLabeler turns a property key such as "teamId" or "net_weight" into
// "Team Id" / "Net Weight". It is the last fallback for display names.
func DefaultLabeler(key string) string {
	if key == "" {
		return ""
	}
	var words []string
	for _, chunk := range labelSeparators.Split(key, -1) {
		for _, word := range splitCamelWords(chunk) {
			words = append(words, capitalize(word))
		}
	}
	return strings.Join(words, " ")
}

func splitCamelWords(chunk string) []string {
	if chunk == "" {
		return nil
	}
	var (
		words []string
		start int
		prev  rune
	)
	for i, r := range chunk {
		if i > 0 && wordBoundary(prev, r) {
			words = append(words, chunk[start:i])
			start = i
		}
		prev = r
	}
	return append(words, chunk[start:])
}

func wordBoundary(prev, r rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(r):
		return true
	case unicode.IsDigit(prev) && unicode.IsLetter(r):
		return true
	}
	return false
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
}
