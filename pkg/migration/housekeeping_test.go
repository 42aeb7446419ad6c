package migration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	githublib "github.com/google/go-github/v70/github"
	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xanzy/go-gitlab"
)

func TestReadDeleteList(t *testing.T) {
	in := "Name,Namespace/Reponame\nApi,payments/api\n\nTools, /ops/tools/ \nEmpty,\n"
	paths, err := ReadDeleteList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"payments/api", "ops/tools"}, paths)

	_, err = ReadDeleteList(strings.NewReader("Name,Path\nApi,payments/api\n"))
	require.Error(t, err)
}

func TestDeleteProjectsContinuesPastFailures(t *testing.T) {
	src := &fakeSource{failOn: map[interface{}]error{"ops/tools": errors.New("403 Forbidden")}}

	deleted, err := DeleteProjects(context.Background(), src, []string{"payments/api", "ops/tools", "ops/docs"})
	require.Error(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []interface{}{"payments/api", "ops/docs"}, src.deleted)
}

func TestArchiveProjects(t *testing.T) {
	src := &fakeSource{}
	projects := []*gitlab.Project{{ID: 1, PathWithNamespace: "a/one"}, {ID: 2, PathWithNamespace: "a/two"}}

	archived, err := ArchiveProjects(context.Background(), src, projects)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)
	assert.Equal(t, []interface{}{1, 2}, src.archived)
}

func TestAddTeamToRepositories(t *testing.T) {
	admin := &fakeTeams{
		teams: []*githublib.Team{{Slug: githublib.Ptr("payments-devs")}, {Slug: githublib.Ptr("ops")}},
		repos: []*githublib.Repository{
			{Name: githublib.Ptr("payments-api")},
			{Name: githublib.Ptr("Payments-web")},
			{Name: githublib.Ptr("ops-tools")},
		},
	}

	added, err := AddTeamToRepositories(context.Background(), admin, "devs", "payments")
	require.NoError(t, err)
	assert.Equal(t, []string{"payments-api", "Payments-web"}, added)
	assert.Equal(t, []string{"payments-devs:payments-api", "payments-devs:Payments-web"}, admin.added)
}

func TestAddTeamToRepositoriesNeedsOneTeam(t *testing.T) {
	admin := &fakeTeams{teams: []*githublib.Team{{Slug: githublib.Ptr("payments-devs")}, {Slug: githublib.Ptr("ops-devs")}}}

	_, err := AddTeamToRepositories(context.Background(), admin, "devs", "payments")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2")
	assert.Empty(t, admin.added)
}

func TestListActiveProjects(t *testing.T) {
	src := &fakeSource{projects: []*gitlab.Project{
		{Name: "api", PathWithNamespace: "payments/api"},
		{Name: "tools", PathWithNamespace: "ops/tools"},
		{Name: "web", PathWithNamespace: "payments/web"},
		{Name: "old", PathWithNamespace: "ops/old", Archived: true},
		{Name: "docs", PathWithNamespace: "docs/docs"},
	}}

	listings, err := ListActiveProjects(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []GroupListing{
		{Group: "payments", Projects: []string{"api", "web"}},
		{Group: "docs", Projects: []string{"docs"}},
		{Group: "ops", Projects: []string{"tools"}},
	}, listings)

	var buf bytes.Buffer
	require.NoError(t, WriteListingsCSV(&buf, listings))
	assert.Equal(t, "Group,Project Name\npayments,api\npayments,web\ndocs,docs\nops,tools\n", buf.String())
}

func TestWikiAndSnippetReports(t *testing.T) {
	shared := &gitlab.Project{ID: 1, PathWithNamespace: "a/shared", WikiEnabled: true, SnippetsEnabled: true}
	src := &fakeSource{
		groups: []*gitlab.Group{{ID: 10, FullPath: "a"}, {ID: 11, FullPath: "a/sub"}},
		groupProjs: map[int][]*gitlab.Project{
			10: {shared, {ID: 2, PathWithNamespace: "a/plain"}},
			11: {shared},
		},
		wikis:    []*glclient.WikiPage{{Slug: "home"}, {Slug: "faq"}},
		snippets: []*glclient.Snippet{{ID: 5}},
	}

	wikis, err := WikiReport(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, wikis, 1)
	assert.Equal(t, 2, wikis[0].Count)
	assert.Equal(t, "a", wikis[0].Group)

	snippets, err := SnippetReport(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, 1, snippets[0].Count)
}

func TestActiveStatistics(t *testing.T) {
	src := &fakeSource{stats: []*glclient.ProjectStats{
		{ID: 1, OpenIssuesCount: 3},
		{ID: 2, OpenIssuesCount: 9, Archived: true},
		{ID: 3, OpenIssuesCount: 7},
	}}

	stats, err := ActiveStatistics(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 3, stats[0].ID)
	assert.Equal(t, 1, stats[1].ID)
}

func TestExportUsers(t *testing.T) {
	src := &fakeSource{users: []*gitlab.User{
		{Name: "Alice", Username: "alice", Email: "alice@example.com", State: "active", IsAdmin: true},
	}}

	var buf bytes.Buffer
	n, err := ExportUsers(context.Background(), src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Name,Username,Email,State,External,is_admin\nAlice,alice,alice@example.com,active,false,true\n", buf.String())
}

type fakeLogins map[int64]string

func (f fakeLogins) UserLogin(_ context.Context, id int64) (string, error) {
	login, ok := f[id]
	if !ok {
		return "", errors.New("404 Not Found")
	}
	return login, nil
}

func TestMapUsers(t *testing.T) {
	src := &fakeSource{users: []*gitlab.User{
		{Username: "alice", Identities: []*gitlab.UserIdentity{{Provider: "github", ExternUID: "101"}}},
		{Username: "bob", Identities: []*gitlab.UserIdentity{{Provider: "ldapmain", ExternUID: "cn=bob"}}},
		{Username: "carol", Identities: []*gitlab.UserIdentity{{Provider: "github", ExternUID: "999"}}},
	}}

	entries, err := MapUsers(context.Background(), src, fakeLogins{101: "alice-gh"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice-gh", entries[0].GitHub)
	assert.Empty(t, entries[1].GitHub)
	assert.Empty(t, entries[2].GitHub)
	assert.Equal(t, "carol", entries[2].GitLab)
}

type fakeSnippetRepo struct {
	dir     string
	commits []string
	pushed  bool
}

func (f *fakeSnippetRepo) Clone(_ context.Context, _, dir string) (string, error) {
	path := filepath.Join(f.dir, dir)
	return path, os.MkdirAll(path, 0o755)
}

func (f *fakeSnippetRepo) CommitAll(_ context.Context, _, message string) error {
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeSnippetRepo) Push(context.Context, string, string) error {
	f.pushed = true
	return nil
}

func TestArchiveSnippets(t *testing.T) {
	project := &gitlab.Project{ID: 1, PathWithNamespace: "ops/tools", SnippetsEnabled: true}
	projectSnippet := &glclient.Snippet{ID: 3, ProjectID: 1, Title: "deploy", FileName: "deploy.sh", WebURL: "https://gitlab.example.com/ops/tools/-/snippets/3"}
	personal := &glclient.Snippet{ID: 7, Title: "notes", Description: "scratch", WebURL: "https://gitlab.example.com/-/snippets/7"}
	personal.Author.Username = "alice"

	src := &fakeSource{
		groups:     []*gitlab.Group{{ID: 10}},
		groupProjs: map[int][]*gitlab.Project{10: {project}},
		snippets:   []*glclient.Snippet{projectSnippet},
		users:      []*gitlab.User{{ID: 100, Username: "alice"}},
		userSnips:  map[int][]*glclient.Snippet{100: {personal, projectSnippet}},
		content:    map[int]string{3: "./deploy", 7: "todo"},
	}
	repo := &fakeSnippetRepo{dir: t.TempDir()}

	n, err := ArchiveSnippets(context.Background(), src, repo, SnippetArchiveOptions{RepoURL: "git@github.com:acme/snippets.git"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, repo.pushed)
	assert.Equal(t, []string{
		"Add snippet of ops/tools - https://gitlab.example.com/ops/tools/-/snippets/3",
		"Add snippet of alice - https://gitlab.example.com/-/snippets/7",
	}, repo.commits)

	root := filepath.Join(repo.dir, "snippets")
	got, err := os.ReadFile(filepath.Join(root, "ops", "tools", "deploy.sh"))
	require.NoError(t, err)
	assert.Equal(t, "./deploy", string(got))
	meta, err := os.ReadFile(filepath.Join(root, "alice", "snippet-7.txt.md"))
	require.NoError(t, err)
	assert.Equal(t, "# notes\n\nscratch\n", string(meta))
	readme, err := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "| deploy | [ops/tools/deploy.sh](ops%2Ftools%2Fdeploy.sh) | https://gitlab.example.com/ops/tools/-/snippets/3 |\n")
}

func TestArchiveSnippetsDryRun(t *testing.T) {
	s := &glclient.Snippet{ID: 1, Title: "one"}
	s.Author.Username = "bob"
	src := &fakeSource{
		users:     []*gitlab.User{{ID: 1, Username: "bob"}},
		userSnips: map[int][]*glclient.Snippet{1: {s}},
		content:   map[int]string{1: "x"},
	}
	repo := &fakeSnippetRepo{dir: t.TempDir()}

	n, err := ArchiveSnippets(context.Background(), src, repo, SnippetArchiveOptions{RepoURL: "git@github.com:acme/snippets.git", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, repo.pushed)
}
