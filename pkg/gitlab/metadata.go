package gitlab

import (
	"context"

	"github.com/xanzy/go-gitlab"
)

// Labels lists the labels of a project.
func (c *Client) Labels(ctx context.Context, pid interface{}) ([]*gitlab.Label, error) {
	return NewFetcher[*gitlab.Label](c.api, projectPath(pid)+"/labels", c.perPage, ShortPage).
		WithQuery(Query{Sort: "asc"}).
		All(ctx)
}

// Milestones lists the milestones of a project.
func (c *Client) Milestones(ctx context.Context, pid interface{}) ([]*gitlab.Milestone, error) {
	return NewFetcher[*gitlab.Milestone](c.api, projectPath(pid)+"/milestones", c.perPage, ShortPage).
		WithQuery(Query{Sort: "asc"}).
		All(ctx)
}
