package gitlab

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/xanzy/go-gitlab"
)

// Snippet is a project or personal snippet.
type Snippet struct {
	ID          int    `json:"id"`
	ProjectID   int    `json:"project_id"`
	Title       string `json:"title"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	WebURL      string `json:"web_url"`
	RawURL      string `json:"raw_url"`
	Author      struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
	Files []struct {
		Path   string `json:"path"`
		RawURL string `json:"raw_url"`
	} `json:"files"`
}

// IsProjectSnippet reports whether the snippet belongs to a project.
func (s *Snippet) IsProjectSnippet() bool {
	return s.ProjectID > 0
}

// ProjectSnippets lists the snippets of a project.
func (c *Client) ProjectSnippets(ctx context.Context, projectID int) ([]*Snippet, error) {
	snippets, err := NewFetcher[*Snippet](c.api, projectPath(projectID)+"/snippets", c.perPage, NextPageHeader).
		WithQuery(Query{Sort: "asc"}).
		All(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range snippets {
		if s.ProjectID == 0 {
			s.ProjectID = projectID
		}
	}
	return snippets, nil
}

// UserSnippets lists the personal snippets of a user, impersonated with sudo.
func (c *Client) UserSnippets(ctx context.Context, userID int) ([]*Snippet, error) {
	return NewFetcher[*Snippet](c.api, "snippets", c.perPage, NextPageHeader).
		WithOptions(gitlab.WithSudo(userID)).
		All(ctx)
}

// SnippetContent returns the raw content of a snippet.
func (c *Client) SnippetContent(ctx context.Context, s *Snippet) ([]byte, error) {
	path := fmt.Sprintf("snippets/%d/raw", s.ID)
	var options []gitlab.RequestOptionFunc
	if s.IsProjectSnippet() {
		path = fmt.Sprintf("%s/snippets/%d/raw", projectPath(s.ProjectID), s.ID)
	} else if s.Author.ID > 0 {
		options = append(options, gitlab.WithSudo(s.Author.ID))
	}

	var buf bytes.Buffer
	if _, err := c.do(ctx, http.MethodGet, path, nil, &buf, options...); err != nil {
		return nil, fmt.Errorf("failed to get content of snippet %d: %w", s.ID, err)
	}
	return buf.Bytes(), nil
}
