package github

import (
	"context"
	"fmt"
	"net/http"

	githublib "github.com/google/go-github/v70/github"
)

// AddCollaborator grants a user access to a repository. invited is true when GitHub sent an
// invitation instead of adding the user directly.
func (client *Client) AddCollaborator(ctx context.Context, repo, user, permission string) (invited bool, err error) {
	err = client.do(ctx, client.clientGate, func() error {
		_, resp, err := client.inner.Repositories.AddCollaborator(ctx, client.owner, repo, user,
			&githublib.RepositoryAddCollaboratorOptions{Permission: permission})
		if err != nil {
			return err
		}
		invited = resp.StatusCode == http.StatusCreated
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to add %s to %s: %w", user, repo, err)
	}
	return invited, nil
}
