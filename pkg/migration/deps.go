package migration

import (
	"context"

	"github.com/krrrr38/gl2gh/pkg/github"
	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/xanzy/go-gitlab"
)

// Source reads a project from the source platform. *gitlab.Client from pkg/gitlab implements it.
type Source interface {
	Labels(ctx context.Context, pid interface{}) ([]*gitlab.Label, error)
	Milestones(ctx context.Context, pid interface{}) ([]*gitlab.Milestone, error)
	Issues(ctx context.Context, pid interface{}) ([]*gitlab.Issue, error)
	IssueNotes(ctx context.Context, pid interface{}, iid int) ([]*gitlab.Note, error)
	MergeRequests(ctx context.Context, pid interface{}) ([]*gitlab.MergeRequest, error)
	MergeRequestNotes(ctx context.Context, pid interface{}, iid int) ([]*gitlab.Note, error)
	ProjectSnippets(ctx context.Context, projectID int) ([]*glclient.Snippet, error)
	SnippetContent(ctx context.Context, s *glclient.Snippet) ([]byte, error)
	Wikis(ctx context.Context, pid interface{}) ([]*glclient.WikiPage, error)
	ArchiveProject(ctx context.Context, pid interface{}) (*gitlab.Project, error)
}

// Destination writes to the destination platform. *github.Client implements it.
type Destination interface {
	Owner() string
	CreateRepository(ctx context.Context, opts github.RepositoryOptions) (*github.Repository, error)
	CreateLabel(ctx context.Context, repo, name, color, description string) error
	CreateMilestone(ctx context.Context, repo string, opts github.MilestoneOptions) (int, error)
	SubmitIssueImport(ctx context.Context, repo string, payload *github.IssueImportRequest) (*github.ImportStatus, error)
	ImportStatus(ctx context.Context, statusURL string) (*github.ImportStatus, error)
	AddCollaborator(ctx context.Context, repo, user, permission string) (bool, error)
	CreatePullRequest(ctx context.Context, repo string, opts *github.PullRequestOptions) (int, error)
	ClosePullRequest(ctx context.Context, repo string, number int) error
	SetMilestone(ctx context.Context, repo string, number, milestone int) error
	AddLabelsToIssue(ctx context.Context, repo string, number int, labels []string) error
	CreateIssueComment(ctx context.Context, repo string, number int, body string) error
	CreateGist(ctx context.Context, description string, public bool, files map[string]string) (string, error)
	AppendToFile(ctx context.Context, repo, branch, path, appendix, message string, committer github.Committer) error
}

// Mirrorer copies version control history. *git.Git implements it.
type Mirrorer interface {
	Mirror(ctx context.Context, sourceURL, destinationURL, name string) error
}

var (
	_ Source      = (*glclient.Client)(nil)
	_ Destination = (*github.Client)(nil)
)
