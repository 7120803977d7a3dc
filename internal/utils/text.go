package utils

import (
	"strings"
	"unicode/utf8"
)

const (
	wordsPerMinute  = 200
	defaultReadTime = 5
)

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadTime estimates minutes of reading at 200 words per minute, never less
// than one. Text without any words gets the default of five minutes.
func ReadTime(text string) int {
	words := WordCount(text)
	if words == 0 {
		return defaultReadTime
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// Truncate returns the first limit runes of text followed by suffix, or text
// unchanged when it is not longer than limit runes.
func Truncate(text string, limit int, suffix string) string {
	if limit < 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + suffix
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
