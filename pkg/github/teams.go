package github

import (
	"context"
	"fmt"

	githublib "github.com/google/go-github/v70/github"
)

// ListTeams lists the teams of the organisation.
func (client *Client) ListTeams(ctx context.Context) ([]*githublib.Team, error) {
	var ret []*githublib.Team
	opts := &githublib.ListOptions{PerPage: 100}
	for {
		var (
			teams []*githublib.Team
			resp  *githublib.Response
		)
		err := client.do(ctx, client.endpointGate, func() error {
			var err error
			teams, resp, err = client.inner.Teams.ListTeams(ctx, client.owner, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", err)
		}
		ret = append(ret, teams...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ret, nil
}

// AddTeamRepository grants a team access to a repository of the organisation.
func (client *Client) AddTeamRepository(ctx context.Context, teamSlug, repo, permission string) error {
	err := client.do(ctx, client.clientGate, func() error {
		_, err := client.inner.Teams.AddTeamRepoBySlug(ctx, client.owner, teamSlug, client.owner, repo,
			&githublib.TeamAddTeamRepoOptions{Permission: permission})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add %s to team %s: %w", repo, teamSlug, err)
	}
	return nil
}
