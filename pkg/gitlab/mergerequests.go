package gitlab

import (
	"context"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// MergeRequests lists every merge request of a project, oldest first.
func (c *Client) MergeRequests(ctx context.Context, pid interface{}) ([]*gitlab.MergeRequest, error) {
	return NewFetcher[*gitlab.MergeRequest](c.api, projectPath(pid)+"/merge_requests", c.perPage, ShortPage).
		WithQuery(Query{OrderBy: "created_at", Sort: "asc"}).
		All(ctx)
}

// MergeRequestNotes lists the comments of a merge request, oldest first.
func (c *Client) MergeRequestNotes(ctx context.Context, pid interface{}, iid int) ([]*gitlab.Note, error) {
	path := fmt.Sprintf("%s/merge_requests/%d/notes", projectPath(pid), iid)
	return NewFetcher[*gitlab.Note](c.api, path, c.perPage, ShortPage).
		WithQuery(Query{Sort: "asc"}).
		All(ctx)
}
