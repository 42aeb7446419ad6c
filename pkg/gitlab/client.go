// Package gitlab reads the source side of a migration through the GitLab REST v4 API.
package gitlab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xanzy/go-gitlab"
)

// DefaultPerPage is the page size used for every list endpoint.
const DefaultPerPage = 100

// Client wraps the go-gitlab client. Failed requests are never retried at this layer.
type Client struct {
	api     *gitlab.Client
	perPage int
}

// NewClient builds a client for the API at baseURL authenticated with a private token.
func NewClient(token, baseURL string, options ...gitlab.ClientOptionFunc) (*Client, error) {
	opts := append([]gitlab.ClientOptionFunc{
		gitlab.WithBaseURL(baseURL),
		gitlab.WithCustomRetryMax(0),
	}, options...)
	api, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return &Client{api: api, perPage: DefaultPerPage}, nil
}

// API exposes the underlying go-gitlab client.
func (c *Client) API() *gitlab.Client {
	return c.api
}

// do performs a single request and decodes the response into v.
func (c *Client) do(ctx context.Context, method, path string, opt interface{}, v interface{}, options ...gitlab.RequestOptionFunc) (*gitlab.Response, error) {
	req, err := c.api.NewRequest(method, path, opt, append([]gitlab.RequestOptionFunc{gitlab.WithContext(ctx)}, options...))
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	return c.api.Do(req, v)
}

func (c *Client) get(ctx context.Context, path string, v interface{}, options ...gitlab.RequestOptionFunc) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, v, options...)
	return err
}

func projectPath(pid interface{}) string {
	switch id := pid.(type) {
	case int:
		return fmt.Sprintf("projects/%d", id)
	case string:
		return "projects/" + gitlab.PathEscape(id)
	default:
		return fmt.Sprintf("projects/%v", id)
	}
}
