package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTablePlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := Table([]string{"ID", "Name"}, [][]string{{"1", "app"}, {"2", "web"}})
	assert.Equal(t, "ID\tName\n1\tapp\n2\tweb\n", got)
}

func TestTableStyled(t *testing.T) {
	t.Setenv("TERM", "xterm")

	got := Table([]string{"Group", "Project Name"}, [][]string{{"team", "app"}})
	for _, want := range []string{"Group", "Project Name", "team", "app"} {
		assert.True(t, strings.Contains(got, want), "missing %q in\n%s", want, got)
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "2.0 kB", Bytes(2000))
	assert.Equal(t, "-", Bytes(-1))
	assert.Equal(t, "1,234,567", Count(1234567))
}
