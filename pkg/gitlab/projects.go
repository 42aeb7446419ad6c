package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xanzy/go-gitlab"
)

// ProjectStats is a project listed with its repository statistics.
type ProjectStats struct {
	ID                int        `json:"id"`
	Path              string     `json:"path"`
	PathWithNamespace string     `json:"path_with_namespace"`
	Archived          bool       `json:"archived"`
	OpenIssuesCount   int        `json:"open_issues_count"`
	LastActivityAt    *time.Time `json:"last_activity_at"`
	Namespace         struct {
		Path     string `json:"path"`
		FullPath string `json:"full_path"`
	} `json:"namespace"`
	ForkedFromProject *struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"forked_from_project"`
	Statistics struct {
		CommitCount    int64 `json:"commit_count"`
		StorageSize    int64 `json:"storage_size"`
		RepositorySize int64 `json:"repository_size"`
		WikiSize       int64 `json:"wiki_size"`
		SnippetsSize   int64 `json:"snippets_size"`
	} `json:"statistics"`
}

// Groups lists every group visible to the token.
func (c *Client) Groups(ctx context.Context) ([]*gitlab.Group, error) {
	return NewFetcher[*gitlab.Group](c.api, "groups", c.perPage, NextPageHeader).All(ctx)
}

// GroupProjects lists the active projects of a group followed by its archived ones.
func (c *Client) GroupProjects(ctx context.Context, group interface{}) ([]*gitlab.Project, error) {
	path := groupPath(group) + "/projects"

	projects, err := NewFetcher[*gitlab.Project](c.api, path, c.perPage, NextPageHeader).All(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := NewFetcher[*gitlab.Project](c.api, path, c.perPage, NextPageHeader).
		WithQuery(Query{Archived: gitlab.Bool(true)}).
		All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(projects))
	for _, p := range projects {
		seen[p.ID] = struct{}{}
	}
	for _, p := range archived {
		if _, ok := seen[p.ID]; !ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// AllProjects lists every project visible to the token.
func (c *Client) AllProjects(ctx context.Context) ([]*gitlab.Project, error) {
	return NewFetcher[*gitlab.Project](c.api, "projects", c.perPage, NextPageHeader).All(ctx)
}

// ProjectStatistics lists every project with statistics. Requires an administrator token.
func (c *Client) ProjectStatistics(ctx context.Context) ([]*ProjectStats, error) {
	return NewFetcher[*ProjectStats](c.api, "projects", c.perPage, ShortPage).
		WithQuery(Query{Statistics: true}).
		All(ctx)
}

// FindProjects selects the projects to operate on. Without a name it returns every project of
// the group; with a name it searches for it. Only projects whose namespace full path equals the
// group (case-insensitively) are returned.
func (c *Client) FindProjects(ctx context.Context, group, name string) ([]*gitlab.Project, error) {
	if group == "" {
		return nil, fmt.Errorf("a group is required to select projects")
	}

	var (
		candidates []*gitlab.Project
		err        error
	)
	if name == "" {
		candidates, err = NewFetcher[*gitlab.Project](c.api, groupPath(group)+"/projects", c.perPage, NextPageHeader).All(ctx)
	} else {
		candidates, err = NewFetcher[*gitlab.Project](c.api, "projects", c.perPage, NextPageHeader).
			WithQuery(Query{Search: name}).
			All(ctx)
	}
	if err != nil {
		return nil, err
	}

	var ret []*gitlab.Project
	for _, p := range candidates {
		if p.Namespace != nil && strings.EqualFold(p.Namespace.FullPath, group) {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

// ArchiveProject marks the project read-only on the source.
func (c *Client) ArchiveProject(ctx context.Context, pid interface{}) (*gitlab.Project, error) {
	p, _, err := c.api.Projects.ArchiveProject(pid, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to archive project %v: %w", pid, err)
	}
	return p, nil
}

// DeleteProject schedules the project for deletion.
func (c *Client) DeleteProject(ctx context.Context, pid interface{}) error {
	if _, err := c.do(ctx, http.MethodDelete, projectPath(pid), nil, nil); err != nil {
		return fmt.Errorf("failed to delete project %v: %w", pid, err)
	}
	return nil
}

func groupPath(group interface{}) string {
	switch g := group.(type) {
	case int:
		return fmt.Sprintf("groups/%d", g)
	case string:
		return "groups/" + gitlab.PathEscape(g)
	default:
		return fmt.Sprintf("groups/%v", g)
	}
}
