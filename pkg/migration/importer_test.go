package migration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/idmap"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xanzy/go-gitlab"
)

func testUsers() *usermap.UserMap {
	return usermap.New(
		usermap.Entry{GitLab: "alice", GitHub: "alice_gh"},
		usermap.Entry{GitLab: "bob", GitHub: "bob_gh"},
	)
}

func testProject() *gitlab.Project {
	return &gitlab.Project{
		ID:                42,
		Path:              "demo",
		Name:              "demo",
		PathWithNamespace: "team/demo",
		Namespace:         &gitlab.ProjectNamespace{Name: "team", FullPath: "team"},
		SSHURLToRepo:      "git@gitlab.example.com:team/demo.git",
		DefaultBranch:     "main",
		IssuesEnabled:     true,
		WikiEnabled:       true,
		SnippetsEnabled:   true,
	}
}

func testTarget() *Target {
	return NewTarget(testProject(), "acme", "demo", "https://gitlab.example.com", testUsers())
}

func newTestImporter(src Source, dest Destination, opts ImporterOptions) (*Importer, *idmap.Mapper) {
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	mapper := idmap.NewMapper()
	return NewImporter(src, dest, mapper, idmap.NewCollaboratorCache(), testUsers(), opts), mapper
}

func note(author, body string) *gitlab.Note {
	n := &gitlab.Note{Body: body}
	n.Author.Username = author
	return n
}

func issue(iid int, author string, labels ...string) *gitlab.Issue {
	return &gitlab.Issue{
		IID:    iid,
		Title:  fmt.Sprintf("issue %d", iid),
		State:  "opened",
		Author: &gitlab.IssueAuthor{Username: author},
		Labels: labels,
	}
}

func pending(n int) *github.ImportStatus {
	return &github.ImportStatus{Status: github.ImportPending, URL: fmt.Sprintf("/import/%d", n)}
}

func imported(number int) *github.ImportStatus {
	return &github.ImportStatus{
		Status:   github.ImportImported,
		IssueURL: fmt.Sprintf("https://api.github.com/repos/acme/demo/issues/%d", number),
	}
}

func failed(field, value string) *github.ImportStatus {
	return &github.ImportStatus{
		Status: github.ImportFailed,
		Errors: []github.ImportError{{Resource: "Issue", Field: field, Value: value, Code: "invalid"}},
	}
}

func TestImportIssuesBuildsPayload(t *testing.T) {
	first := issue(1, "bob", "Bug", "Backend")
	first.Description = "see #2 and !1 cc @alice"
	first.Assignees = []*gitlab.IssueAssignee{{Username: "alice"}}
	second := issue(2, "carol")
	system := note("bob", "changed the description")
	system.System = true

	src := &fakeSource{
		issues:     []*gitlab.Issue{first, second},
		issueNotes: map[int][]*gitlab.Note{1: {system, note("carol", "thanks @bob")}},
	}
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return imported(n) }

	im, mapper := newTestImporter(src, dest, ImporterOptions{})
	table, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	assert.Equal(t, idmap.Table{1: 1, 2: 2}, table)
	assert.True(t, mapper.Confirmed(idmap.KindIssue, "demo", 2))
	require.Len(t, dest.submissions, 2)

	p := dest.submissions[0]
	assert.Equal(t, "issue 1", p.Issue.Title)
	assert.Equal(t, "alice_gh", p.Issue.Assignee)
	assert.Equal(t, []string{"bug", "Backend"}, p.Issue.Labels)
	assert.Equal(t,
		"> **Migration Note:** This issue was originally created by @bob_gh\n\nsee acme/demo#2 and acme/demo#3 cc @alice_gh",
		p.Issue.Body)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "> **Migration Note:** This comment was originally added by carol\n\nthanks @bob_gh", p.Comments[0].Body)

	assert.Equal(t, "> **Migration Note:** This issue was originally created by carol\n\n", dest.submissions[1].Issue.Body)
	assert.Equal(t, []string{"alice_gh"}, dest.collaborators)
}

func TestImportIssuesCreditsAssigneeWithNoAssignee(t *testing.T) {
	first := issue(1, "bob")
	first.Assignee = &gitlab.IssueAssignee{Username: "alice"}
	second := issue(2, "bob")
	second.Assignee = &gitlab.IssueAssignee{Username: "dave"}

	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return imported(n) }
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{first, second}}, dest, ImporterOptions{NoAssignee: true})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	require.Len(t, dest.submissions, 2)
	assert.Empty(t, dest.submissions[0].Issue.Assignee)
	assert.Contains(t, dest.submissions[0].Issue.Body, "created by @bob_gh and Assigned to alice_gh")
	assert.Contains(t, dest.submissions[1].Issue.Body, "and Assigned to dave")
	assert.Empty(t, dest.collaborators)
}

func TestImportIssuesSkipsConfirmed(t *testing.T) {
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return imported(n + 10) }
	im, mapper := newTestImporter(&fakeSource{issues: []*gitlab.Issue{issue(1, "bob"), issue(2, "bob")}}, dest, ImporterOptions{})
	require.NoError(t, mapper.Record(idmap.KindIssue, "demo", 1, 10))

	table, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	require.Len(t, dest.submissions, 1)
	assert.Equal(t, "issue 2", dest.submissions[0].Issue.Title)
	assert.Equal(t, idmap.Table{1: 10, 2: 11}, table)
}

func TestReconcileDropsRejectedAssignee(t *testing.T) {
	is := issue(1, "bob")
	is.Assignees = []*gitlab.IssueAssignee{{Username: "alice"}}

	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return pending(n) }
	dest.poll = func(url string) *github.ImportStatus {
		if url == "/import/1" {
			return failed("assignee", "alice_gh")
		}
		return imported(5)
	}
	im, mapper := newTestImporter(&fakeSource{issues: []*gitlab.Issue{is}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	require.Len(t, dest.submissions, 2)
	assert.Equal(t, "alice_gh", dest.submissions[0].Issue.Assignee)
	assert.Empty(t, dest.submissions[1].Issue.Assignee)
	assert.Equal(t, "> **Migration Note:** This issue was originally created by @bob_gh and Assigned to alice_gh\n\n",
		dest.submissions[1].Issue.Body)
	got, ok := mapper.Resolve(idmap.KindIssue, "demo", 1)
	require.True(t, ok)
	assert.Equal(t, 5, got)
}

func TestReconcileTogglesRejectedLabel(t *testing.T) {
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return pending(n) }
	dest.poll = func(url string) *github.ImportStatus {
		if url == "/import/1" {
			return failed("name", "Feature")
		}
		return imported(1)
	}
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{issue(1, "bob", "Feature", "ui")}}, dest, ImporterOptions{})

	table, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	assert.Equal(t, idmap.Table{1: 1}, table)
	require.Len(t, dest.submissions, 2)
	assert.Equal(t, []string{"Feature", "ui"}, dest.submissions[0].Issue.Labels)
	assert.Equal(t, []string{"ui", "feature"}, dest.submissions[1].Issue.Labels)
}

func TestReconcileLabelRejectedInBothSpellingsIsFatal(t *testing.T) {
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return pending(n) }
	dest.poll = func(url string) *github.ImportStatus {
		if url == "/import/1" {
			return failed("name", "Feature")
		}
		return failed("name", "feature")
	}
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{issue(1, "bob", "Feature")}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Len(t, dest.submissions, 2)
}

func TestReconcileAssigneeRejectedTwiceIsFatal(t *testing.T) {
	is := issue(1, "bob")
	is.Assignees = []*gitlab.IssueAssignee{{Username: "alice"}}

	dest := newFakeDest()
	dest.submit = func(int, *github.IssueImportRequest) *github.ImportStatus { return failed("assignee", "alice_gh") }
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{is}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	require.Len(t, dest.submissions, 2)
	assert.Empty(t, dest.submissions[1].Issue.Assignee)
	assert.Contains(t, dest.submissions[1].Issue.Body, "and Assigned to alice_gh")
}

func TestImportIssuesWithoutAuthor(t *testing.T) {
	is := issue(1, "")
	is.Author = nil
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus { return imported(n) }
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{is}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)
	require.Len(t, dest.submissions, 1)
	assert.Equal(t, "> **Migration Note:** This issue was originally created by ghost\n\n", dest.submissions[0].Issue.Body)
}

func TestReconcileUnknownFailureIsFatal(t *testing.T) {
	dest := newFakeDest()
	dest.submit = func(int, *github.IssueImportRequest) *github.ImportStatus {
		return &github.ImportStatus{
			Status: github.ImportFailed,
			Errors: []github.ImportError{{Resource: "Issue", Field: "title", Code: "missing_field"}},
		}
	}
	im, _ := newTestImporter(&fakeSource{issues: []*gitlab.Issue{issue(1, "bob")}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "missing_field")
	assert.Len(t, dest.submissions, 1)
}

func TestReconcileTimesOut(t *testing.T) {
	dest := newFakeDest()
	dest.poll = func(url string) *github.ImportStatus { return pending(1) }
	im, _ := newTestImporter(&fakeSource{}, dest, ImporterOptions{MaxPolls: 3})

	rec := &ImportStatusRecord{Status: pending(1), SourceIID: 7, Repo: "demo"}
	_, err := im.Reconcile(context.Background(), rec)
	require.ErrorIs(t, err, ErrImportTimeout)
	assert.False(t, IsFatal(err))
	assert.Equal(t, 3, dest.polls)
}

func TestImportIssuesContinuesPastTimeout(t *testing.T) {
	dest := newFakeDest()
	dest.submit = func(n int, _ *github.IssueImportRequest) *github.ImportStatus {
		if n == 1 {
			return pending(1)
		}
		return imported(2)
	}
	dest.poll = func(string) *github.ImportStatus { return pending(1) }
	im, mapper := newTestImporter(&fakeSource{issues: []*gitlab.Issue{issue(1, "bob"), issue(2, "bob")}}, dest, ImporterOptions{MaxPolls: 1})

	table, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)
	assert.Equal(t, idmap.Table{2: 2}, table)
	assert.False(t, mapper.Confirmed(idmap.KindIssue, "demo", 1))
}

func TestReconcileStopsOnCancel(t *testing.T) {
	dest := newFakeDest()
	dest.poll = func(string) *github.ImportStatus { return pending(1) }
	im, _ := newTestImporter(&fakeSource{}, dest, ImporterOptions{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := im.Reconcile(ctx, &ImportStatusRecord{Status: pending(1), Repo: "demo"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t,
		[]string{"bug", "help wanted", "Backend", "wontfix"},
		normalizeLabels([]string{"Bug", " Help Wanted ", "Backend", "WONTFIX"}))
}

func TestImportIssueEndToEndPayload(t *testing.T) {
	bug := &gitlab.Issue{
		IID:       5,
		Title:     "Bug",
		State:     "opened",
		Labels:    gitlab.Labels{"Bug"},
		Assignees: []*gitlab.IssueAssignee{{Username: "alice"}},
	}
	dest := newFakeDest()
	dest.submit = func(int, *github.IssueImportRequest) *github.ImportStatus { return pending(1) }
	dest.poll = func(string) *github.ImportStatus { return imported(1) }
	im, mapper := newTestImporter(&fakeSource{issues: []*gitlab.Issue{bug}}, dest, ImporterOptions{})

	_, err := im.ImportIssues(context.Background(), testTarget())
	require.NoError(t, err)

	require.Len(t, dest.submissions, 1)
	assert.Equal(t, "Bug", dest.submissions[0].Issue.Title)
	assert.Equal(t, []string{"bug"}, dest.submissions[0].Issue.Labels)
	assert.Equal(t, "alice_gh", dest.submissions[0].Issue.Assignee)
	got, ok := mapper.Resolve(idmap.KindIssue, "demo", 5)
	require.True(t, ok)
	assert.Equal(t, 1, got)
}
