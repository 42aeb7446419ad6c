package migration

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/xanzy/go-gitlab"
)

// InventorySource lists projects, users and their contents for the reporting commands.
type InventorySource interface {
	AllProjects(ctx context.Context) ([]*gitlab.Project, error)
	Groups(ctx context.Context) ([]*gitlab.Group, error)
	GroupProjects(ctx context.Context, group interface{}) ([]*gitlab.Project, error)
	Wikis(ctx context.Context, pid interface{}) ([]*glclient.WikiPage, error)
	ProjectSnippets(ctx context.Context, projectID int) ([]*glclient.Snippet, error)
	ProjectStatistics(ctx context.Context) ([]*glclient.ProjectStats, error)
	Users(ctx context.Context) ([]*gitlab.User, error)
}

// GroupListing is the active projects of one top level group.
type GroupListing struct {
	Group    string   `json:"group"`
	Projects []string `json:"projects"`
}

// ListActiveProjects groups every non archived project by its top level group, largest group
// first.
func ListActiveProjects(ctx context.Context, src InventorySource) ([]GroupListing, error) {
	projects, err := src.AllProjects(ctx)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]string)
	for _, p := range projects {
		if p.Archived {
			continue
		}
		group, _, _ := strings.Cut(p.PathWithNamespace, "/")
		byGroup[group] = append(byGroup[group], p.Name)
	}

	listings := make([]GroupListing, 0, len(byGroup))
	for group, names := range byGroup {
		listings = append(listings, GroupListing{Group: group, Projects: names})
	}
	sort.SliceStable(listings, func(i, j int) bool {
		if len(listings[i].Projects) != len(listings[j].Projects) {
			return len(listings[i].Projects) > len(listings[j].Projects)
		}
		return listings[i].Group < listings[j].Group
	})
	return listings, nil
}

// ListingRows flattens listings into Group, Project Name rows.
func ListingRows(listings []GroupListing) [][]string {
	var rows [][]string
	for _, l := range listings {
		for _, name := range l.Projects {
			rows = append(rows, []string{l.Group, name})
		}
	}
	return rows
}

// WriteListingsCSV writes listings as Group, Project Name rows.
func WriteListingsCSV(w io.Writer, listings []GroupListing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Group", "Project Name"}); err != nil {
		return err
	}
	if err := cw.WriteAll(ListingRows(listings)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteListingsJSON writes listings as an indented JSON array.
func WriteListingsJSON(w io.Writer, listings []GroupListing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listings)
}

// ProjectCount is a project with the number of items of some kind it holds.
type ProjectCount struct {
	Project *gitlab.Project
	Group   string
	Count   int
}

// groupProjects visits every project of every group once, active and archived.
func groupProjects(ctx context.Context, src InventorySource, fn func(group *gitlab.Group, p *gitlab.Project) error) error {
	groups, err := src.Groups(ctx)
	if err != nil {
		return err
	}
	seen := make(map[int]struct{})
	for _, g := range groups {
		projects, err := src.GroupProjects(ctx, g.ID)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			if err := fn(g, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// WikiReport lists the projects with wiki pages.
func WikiReport(ctx context.Context, src InventorySource) ([]ProjectCount, error) {
	var ret []ProjectCount
	err := groupProjects(ctx, src, func(g *gitlab.Group, p *gitlab.Project) error {
		if !p.WikiEnabled {
			return nil
		}
		pages, err := src.Wikis(ctx, p.ID)
		if err != nil {
			logger.Warn("Failed to list wiki pages", "project", p.PathWithNamespace, "error", err)
			return nil
		}
		if len(pages) > 0 {
			logger.Debug("Project has wiki pages", "project", p.PathWithNamespace, "count", len(pages))
			ret = append(ret, ProjectCount{Project: p, Group: g.FullPath, Count: len(pages)})
		}
		return nil
	})
	return ret, err
}

// SnippetReport lists the projects with snippets.
func SnippetReport(ctx context.Context, src InventorySource) ([]ProjectCount, error) {
	var ret []ProjectCount
	err := groupProjects(ctx, src, func(g *gitlab.Group, p *gitlab.Project) error {
		if !p.SnippetsEnabled {
			return nil
		}
		snippets, err := src.ProjectSnippets(ctx, p.ID)
		if err != nil {
			logger.Warn("Failed to list snippets", "project", p.PathWithNamespace, "error", err)
			return nil
		}
		if len(snippets) > 0 {
			ret = append(ret, ProjectCount{Project: p, Group: g.FullPath, Count: len(snippets)})
		}
		return nil
	})
	return ret, err
}

// ActiveStatistics returns the statistics of non archived projects, most open issues first.
func ActiveStatistics(ctx context.Context, src InventorySource) ([]*glclient.ProjectStats, error) {
	all, err := src.ProjectStatistics(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*glclient.ProjectStats, 0, len(all))
	for _, p := range all {
		if !p.Archived {
			ret = append(ret, p)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].OpenIssuesCount > ret[j].OpenIssuesCount
	})
	return ret, nil
}

// ExportUsers writes every user as CSV and returns the number of users written.
func ExportUsers(ctx context.Context, src InventorySource, w io.Writer) (int, error) {
	users, err := src.Users(ctx)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Username", "Email", "State", "External", "is_admin"}); err != nil {
		return 0, err
	}
	for _, u := range users {
		row := []string{u.Name, u.Username, u.Email, u.State, strconv.FormatBool(u.External), strconv.FormatBool(u.IsAdmin)}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to write users: %w", err)
	}
	return len(users), nil
}
