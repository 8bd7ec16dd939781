package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes returns the first n characters of s, counted in code points.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// CharCount is the length of s in code points.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// WordCount counts whitespace-separated fields.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
