package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringDeterministic(t *testing.T) {
	a := HashString("contract.pdf_some leading text")
	b := HashString("contract.pdf_some leading text")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c := HashString("other.pdf_some leading text")
	assert.NotEqual(t, a, c)
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "abc", TruncateChars("abc", 10))
	assert.Equal(t, "ab", TruncateChars("abc", 2))
	assert.Equal(t, "", TruncateChars("abc", 0))

	// Counts runes, not bytes.
	assert.Equal(t, "héll", TruncateChars("héllo", 4))
}
