package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDescription(t *testing.T) {
	assert.Equal(t, "line oneline two", sanitizeDescription("line one\nline two"))
	assert.Equal(t, "ab", sanitizeDescription("a\r\nb"))
	assert.Equal(t, "plain", sanitizeDescription("plain"))
}
