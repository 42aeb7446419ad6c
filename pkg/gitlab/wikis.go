package gitlab

import (
	"context"
	"fmt"
)

// WikiPage is a wiki page listed without its content.
type WikiPage struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Format string `json:"format"`
}

// Wikis lists the wiki pages of a project. The endpoint is not paginated.
func (c *Client) Wikis(ctx context.Context, pid interface{}) ([]*WikiPage, error) {
	var pages []*WikiPage
	if err := c.get(ctx, projectPath(pid)+"/wikis", &pages); err != nil {
		return nil, fmt.Errorf("failed to list wikis of project %v: %w", pid, err)
	}
	return pages, nil
}
