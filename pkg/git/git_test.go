package git

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/krrrr38/gl2gh/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	cmds   []utils.Command
	output map[string]string
	fail   string
}

func (r *recorder) run(_ context.Context, c utils.Command) (string, error) {
	r.cmds = append(r.cmds, c)
	line := strings.Join(c.Args, " ")
	if r.fail != "" && strings.HasPrefix(line, r.fail) {
		return "", errors.New("exit status 128")
	}
	return r.output[line], nil
}

func (r *recorder) lines() []string {
	var ret []string
	for _, c := range r.cmds {
		ret = append(ret, strings.Join(c.Args, " "))
	}
	return ret
}

func TestMirror(t *testing.T) {
	work := t.TempDir()
	rec := &recorder{}
	g := NewGitWithRunner(work, rec.run)

	require.NoError(t, g.Mirror(context.Background(), "git@gitlab.example.com:team/app.git", "git@github.com:acme/app.git", "app"))

	bare := filepath.Join(work, "app.git")
	assert.Equal(t, []string{
		"clone --bare git@gitlab.example.com:team/app.git " + bare,
		"remote add github git@github.com:acme/app.git",
		"push --mirror github",
	}, rec.lines())
	assert.Equal(t, bare, rec.cmds[1].Dir)
	assert.Equal(t, bare, rec.cmds[2].Dir)
}

func TestMirrorStopsOnCloneFailure(t *testing.T) {
	rec := &recorder{fail: "clone"}
	g := NewGitWithRunner(t.TempDir(), rec.run)

	err := g.Mirror(context.Background(), "src", "dst", "app")
	require.Error(t, err)
	assert.Len(t, rec.cmds, 1)
}

func TestCommitAllSkipsCleanTree(t *testing.T) {
	rec := &recorder{}
	g := NewGitWithRunner(t.TempDir(), rec.run)

	require.NoError(t, g.CommitAll(context.Background(), "/repo", "msg"))
	assert.Equal(t, []string{"add .", "status --porcelain"}, rec.lines())

	rec = &recorder{output: map[string]string{"status --porcelain": "A  a.txt\n"}}
	g = NewGitWithRunner(t.TempDir(), rec.run)
	require.NoError(t, g.CommitAll(context.Background(), "/repo", "Add snippet"))
	assert.Equal(t, []string{"add .", "status --porcelain", "commit -m Add snippet"}, rec.lines())
}

func TestCloneSetsLocalIdentity(t *testing.T) {
	work := t.TempDir()
	rec := &recorder{}
	g := NewGitWithRunner(work, rec.run).WithIdentity("rtBot", "rtbot@example.com")

	path, err := g.Clone(context.Background(), "git@github.com:acme/snippets.git", "snippets")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, "snippets"), path)
	assert.Equal(t, []string{
		"clone git@github.com:acme/snippets.git " + path,
		"config --local user.name rtBot",
		"config --local user.email rtbot@example.com",
	}, rec.lines())
	assert.Equal(t, path, rec.cmds[1].Dir)
	assert.Equal(t, path, rec.cmds[2].Dir)
}

func TestCloneWithoutIdentity(t *testing.T) {
	rec := &recorder{}
	g := NewGitWithRunner(t.TempDir(), rec.run)

	_, err := g.Clone(context.Background(), "git@github.com:acme/snippets.git", "snippets")
	require.NoError(t, err)
	assert.Len(t, rec.cmds, 1)
}
