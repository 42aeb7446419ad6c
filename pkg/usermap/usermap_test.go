package usermap

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSkipsHeaderAndBlankRows(t *testing.T) {
	in := "gitlab_username,github_username\nalice,alice_gh\n\nbob,\ncarol, carol-gh\n"

	entries, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{GitLab: "alice", GitHub: "alice_gh"},
		{GitLab: "bob", GitHub: ""},
		{GitLab: "carol", GitHub: "carol-gh"},
	}, entries)

	m := New(entries...)
	assert.Equal(t, 2, m.Len())

	got, ok := m.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "alice_gh", got)

	_, ok = m.Lookup("bob")
	assert.False(t, ok)

	assert.True(t, m.IsGitHubUser("Carol-GH"))
	assert.False(t, m.IsGitHubUser("alice"))
}

func TestWriteThenLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Entry{{GitLab: "alice", GitHub: "alice_gh"}, {GitLab: "dave"}}))
	assert.Equal(t, "gitlab_username,github_username\nalice,alice_gh\ndave,\n", buf.String())

	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestLoadWithoutPath(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, m.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
