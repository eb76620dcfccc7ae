package utils

import (
	"crypto/md5"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// TruncateChars returns the first n characters (runes, not bytes) of s.
// Prompt and identifier budgets are counted in characters, so byte slicing
// would split multibyte runes.
func TruncateChars(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
