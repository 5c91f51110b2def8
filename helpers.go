package draftpub

import (
	"strconv"
	"unicode/utf8"
)

const digestRunes = 50

// Digest returns the draft digest for title: its first 50 characters.
func Digest(title string) string {
	return truncateRunes(title, digestRunes)
}

func truncateRunes(s string, n int) string {
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

// boolFlag renders b as the 0/1 integers the gateway expects.
func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseLimit reads a positive integer query value, falling back to def and
// capping at max.
func parseLimit(v string, def, max int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
