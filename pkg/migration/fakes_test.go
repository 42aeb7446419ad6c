package migration

import (
	"context"
	"fmt"
	"sync"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/github"
	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/xanzy/go-gitlab"
)

type fakeSource struct {
	labels     []*gitlab.Label
	milestones []*gitlab.Milestone
	issues     []*gitlab.Issue
	issueNotes map[int][]*gitlab.Note
	mrs        []*gitlab.MergeRequest
	mrNotes    map[int][]*gitlab.Note
	snippets   []*glclient.Snippet
	userSnips  map[int][]*glclient.Snippet
	content    map[int]string
	wikis      []*glclient.WikiPage
	projects   []*gitlab.Project
	groups     []*gitlab.Group
	groupProjs map[int][]*gitlab.Project
	stats      []*glclient.ProjectStats
	users      []*gitlab.User

	archived []interface{}
	deleted  []interface{}
	failOn   map[interface{}]error
}

func (f *fakeSource) Labels(context.Context, interface{}) ([]*gitlab.Label, error) {
	return f.labels, nil
}

func (f *fakeSource) Milestones(context.Context, interface{}) ([]*gitlab.Milestone, error) {
	return f.milestones, nil
}

func (f *fakeSource) Issues(context.Context, interface{}) ([]*gitlab.Issue, error) {
	return f.issues, nil
}

func (f *fakeSource) IssueNotes(_ context.Context, _ interface{}, iid int) ([]*gitlab.Note, error) {
	return f.issueNotes[iid], nil
}

func (f *fakeSource) MergeRequests(context.Context, interface{}) ([]*gitlab.MergeRequest, error) {
	return f.mrs, nil
}

func (f *fakeSource) MergeRequestNotes(_ context.Context, _ interface{}, iid int) ([]*gitlab.Note, error) {
	return f.mrNotes[iid], nil
}

func (f *fakeSource) ProjectSnippets(_ context.Context, projectID int) ([]*glclient.Snippet, error) {
	var ret []*glclient.Snippet
	for _, s := range f.snippets {
		if s.ProjectID == 0 || s.ProjectID == projectID {
			ret = append(ret, s)
		}
	}
	return ret, nil
}

func (f *fakeSource) UserSnippets(_ context.Context, userID int) ([]*glclient.Snippet, error) {
	return f.userSnips[userID], nil
}

func (f *fakeSource) SnippetContent(_ context.Context, s *glclient.Snippet) ([]byte, error) {
	return []byte(f.content[s.ID]), nil
}

func (f *fakeSource) Wikis(context.Context, interface{}) ([]*glclient.WikiPage, error) {
	return f.wikis, nil
}

func (f *fakeSource) ArchiveProject(_ context.Context, pid interface{}) (*gitlab.Project, error) {
	if err := f.failOn[pid]; err != nil {
		return nil, err
	}
	f.archived = append(f.archived, pid)
	return &gitlab.Project{}, nil
}

func (f *fakeSource) DeleteProject(_ context.Context, pid interface{}) error {
	if err := f.failOn[pid]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, pid)
	return nil
}

func (f *fakeSource) AllProjects(context.Context) ([]*gitlab.Project, error) {
	return f.projects, nil
}

func (f *fakeSource) Groups(context.Context) ([]*gitlab.Group, error) {
	return f.groups, nil
}

func (f *fakeSource) GroupProjects(_ context.Context, group interface{}) ([]*gitlab.Project, error) {
	id, _ := group.(int)
	return f.groupProjs[id], nil
}

func (f *fakeSource) ProjectStatistics(context.Context) ([]*glclient.ProjectStats, error) {
	return f.stats, nil
}

func (f *fakeSource) Users(context.Context) ([]*gitlab.User, error) {
	return f.users, nil
}

type fakeDest struct {
	mu sync.Mutex

	// submit returns the status of the n-th submission, counting from 1.
	submit func(n int, p *github.IssueImportRequest) *github.ImportStatus
	// poll returns the status behind a status url.
	poll func(url string) *github.ImportStatus

	submissions   []*github.IssueImportRequest
	polls         int
	collaborators []string

	labels      []string
	labelErr    map[string]error
	milestones  []github.MilestoneOptions
	repos       []github.RepositoryOptions
	createErr   error
	prs         []*github.PullRequestOptions
	prErr       map[string]error
	nextNumber  int
	closed      []int
	milestoneOf map[int]int
	labelsOf    map[int][]string
	comments    map[int][]string

	// milestoneErr and issueLabelErr (keyed by label) fail updates of created pull requests.
	milestoneErr  error
	issueLabelErr map[string]error

	gists     []map[string]string
	appended  []string
	appendErr error
}

func newFakeDest() *fakeDest {
	return &fakeDest{
		labelErr:      make(map[string]error),
		issueLabelErr: make(map[string]error),
		prErr:         make(map[string]error),
		milestoneOf:   make(map[int]int),
		labelsOf:      make(map[int][]string),
		comments:      make(map[int][]string),
	}
}

func (f *fakeDest) Owner() string { return "acme" }

func (f *fakeDest) CreateRepository(_ context.Context, opts github.RepositoryOptions) (*github.Repository, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.repos = append(f.repos, opts)
	return &github.Repository{
		Name:   opts.Name,
		URL:    "https://github.com/acme/" + opts.Name,
		SSHURL: "git@github.com:acme/" + opts.Name + ".git",
	}, nil
}

func (f *fakeDest) CreateLabel(_ context.Context, _, name, _, _ string) error {
	if err := f.labelErr[name]; err != nil {
		return err
	}
	f.labels = append(f.labels, name)
	return nil
}

func (f *fakeDest) CreateMilestone(_ context.Context, _ string, opts github.MilestoneOptions) (int, error) {
	f.milestones = append(f.milestones, opts)
	return len(f.milestones), nil
}

func (f *fakeDest) SubmitIssueImport(_ context.Context, _ string, p *github.IssueImportRequest) (*github.ImportStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, p.Clone())
	return f.submit(len(f.submissions), p), nil
}

func (f *fakeDest) ImportStatus(_ context.Context, url string) (*github.ImportStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.poll(url), nil
}

func (f *fakeDest) AddCollaborator(_ context.Context, _, user, _ string) (bool, error) {
	f.collaborators = append(f.collaborators, user)
	return false, nil
}

func (f *fakeDest) CreatePullRequest(_ context.Context, _ string, opts *github.PullRequestOptions) (int, error) {
	if err := f.prErr[opts.Head]; err != nil {
		return 0, err
	}
	f.prs = append(f.prs, opts)
	f.nextNumber++
	return f.nextNumber, nil
}

func (f *fakeDest) ClosePullRequest(_ context.Context, _ string, number int) error {
	f.closed = append(f.closed, number)
	return nil
}

func (f *fakeDest) SetMilestone(_ context.Context, _ string, number, milestone int) error {
	if f.milestoneErr != nil {
		return f.milestoneErr
	}
	f.milestoneOf[number] = milestone
	return nil
}

func (f *fakeDest) AddLabelsToIssue(_ context.Context, _ string, number int, labels []string) error {
	for _, l := range labels {
		if err := f.issueLabelErr[l]; err != nil {
			return err
		}
	}
	f.labelsOf[number] = append(f.labelsOf[number], labels...)
	return nil
}

func (f *fakeDest) CreateIssueComment(_ context.Context, _ string, number int, body string) error {
	f.comments[number] = append(f.comments[number], body)
	return nil
}

func (f *fakeDest) CreateGist(_ context.Context, _ string, _ bool, files map[string]string) (string, error) {
	f.gists = append(f.gists, files)
	return fmt.Sprintf("https://gist.github.com/%d", len(f.gists)), nil
}

func (f *fakeDest) AppendToFile(_ context.Context, _, _, _, appendix, _ string, _ github.Committer) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, appendix)
	return nil
}

type fakeMirror struct {
	calls [][2]string
	err   error
}

func (f *fakeMirror) Mirror(_ context.Context, src, dst, _ string) error {
	f.calls = append(f.calls, [2]string{src, dst})
	return f.err
}

type fakeTeams struct {
	teams []*githublib.Team
	repos []*githublib.Repository
	added []string
}

func (f *fakeTeams) ListRepositories(context.Context) ([]*githublib.Repository, error) {
	return f.repos, nil
}

func (f *fakeTeams) ListTeams(context.Context) ([]*githublib.Team, error) {
	return f.teams, nil
}

func (f *fakeTeams) AddTeamRepository(_ context.Context, slug, repo, _ string) error {
	f.added = append(f.added, slug+":"+repo)
	return nil
}

var (
	_ Source          = (*fakeSource)(nil)
	_ InventorySource = (*fakeSource)(nil)
	_ SnippetSource   = (*fakeSource)(nil)
	_ Destination     = (*fakeDest)(nil)
	_ TeamAdmin       = (*fakeTeams)(nil)
)
