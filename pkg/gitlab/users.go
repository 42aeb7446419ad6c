package gitlab

import (
	"context"

	"github.com/xanzy/go-gitlab"
)

// Users lists every user. Email, admin and identity fields require an administrator token.
func (c *Client) Users(ctx context.Context) ([]*gitlab.User, error) {
	return NewFetcher[*gitlab.User](c.api, "users", c.perPage, NextPageHeader).All(ctx)
}

// GitHubIdentity returns the GitHub user id linked to the account, if any.
func GitHubIdentity(u *gitlab.User) (string, bool) {
	for _, identity := range u.Identities {
		if identity != nil && identity.Provider == "github" && identity.ExternUID != "" {
			return identity.ExternUID, true
		}
	}
	return "", false
}
