package gitlab

import (
	"context"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// Issues lists every issue of a project, oldest first.
func (c *Client) Issues(ctx context.Context, pid interface{}) ([]*gitlab.Issue, error) {
	return NewFetcher[*gitlab.Issue](c.api, projectPath(pid)+"/issues", c.perPage, ShortPage).
		WithQuery(Query{OrderBy: "created_at", Sort: "asc"}).
		All(ctx)
}

// IssueNotes lists the comments of an issue, oldest first.
func (c *Client) IssueNotes(ctx context.Context, pid interface{}, iid int) ([]*gitlab.Note, error) {
	path := fmt.Sprintf("%s/issues/%d/notes", projectPath(pid), iid)
	return NewFetcher[*gitlab.Note](c.api, path, c.perPage, ShortPage).
		WithQuery(Query{Sort: "asc"}).
		All(ctx)
}
