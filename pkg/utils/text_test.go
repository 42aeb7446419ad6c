package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))

	long := strings.Repeat("あ", 40)
	got := TruncateText(long, 30)
	assert.Equal(t, 30, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, TruncateSuffix))

	assert.Equal(t, "abcde", TruncateText("abcdefgh", 5))
}

func TestToggleInitialCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bug", "bug"},
		{"BUG", "bug"},
		{"bug", "Bug"},
		{"help wanted", "Help wanted"},
		{"1.0", "1.0"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToggleInitialCase(tt.in))
		})
	}
}
