package migration

import (
	"context"
	"fmt"
	"strings"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
)

// TeamAdmin manages team access to destination repositories.
type TeamAdmin interface {
	ListRepositories(ctx context.Context) ([]*githublib.Repository, error)
	ListTeams(ctx context.Context) ([]*githublib.Team, error)
	AddTeamRepository(ctx context.Context, teamSlug, repo, permission string) error
}

// AddTeamToRepositories grants the team whose slug contains team push access to every
// repository whose name contains keyword. Exactly one team must match.
func AddTeamToRepositories(ctx context.Context, admin TeamAdmin, team, keyword string) ([]string, error) {
	teams, err := admin.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*githublib.Team
	for _, t := range teams {
		if strings.Contains(strings.ToLower(t.GetSlug()), strings.ToLower(team)) {
			matched = append(matched, t)
		}
	}
	if len(matched) != 1 {
		slugs := make([]string, 0, len(matched))
		for _, t := range matched {
			slugs = append(slugs, t.GetSlug())
		}
		return nil, fmt.Errorf("expected exactly one team matching %q, found %d: %s", team, len(matched), strings.Join(slugs, ", "))
	}
	slug := matched[0].GetSlug()

	repos, err := admin.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	var added []string
	for _, r := range repos {
		name := r.GetName()
		if !strings.Contains(strings.ToLower(name), strings.ToLower(keyword)) {
			continue
		}
		if err := admin.AddTeamRepository(ctx, slug, name, "push"); err != nil {
			if isCanceled(err) {
				return added, err
			}
			logger.Error("Failed to add team to repository", "team", slug, "repo", name, "error", err)
			continue
		}
		logger.Info("Added team to repository", "team", slug, "repo", name)
		added = append(added, name)
	}
	return added, nil
}
