package migration

import (
	"context"
	"strconv"

	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/xanzy/go-gitlab"
)

// UserSource lists source users with their identities.
type UserSource interface {
	Users(ctx context.Context) ([]*gitlab.User, error)
}

// LoginResolver resolves a destination user id to a login.
type LoginResolver interface {
	UserLogin(ctx context.Context, id int64) (string, error)
}

// MapUsers builds the user mapping table from the GitHub identities linked to source accounts.
// Users without a resolvable identity are listed with an empty destination.
func MapUsers(ctx context.Context, src UserSource, logins LoginResolver) ([]usermap.Entry, error) {
	users, err := src.Users(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]usermap.Entry, 0, len(users))
	var mapped int
	for _, u := range users {
		entry := usermap.Entry{GitLab: u.Username}
		if uid, ok := glclient.GitHubIdentity(u); ok {
			id, err := strconv.ParseInt(uid, 10, 64)
			if err != nil {
				logger.Warn("Unexpected GitHub identity", "user", u.Username, "uid", uid)
			} else if login, err := logins.UserLogin(ctx, id); err != nil {
				if isCanceled(err) {
					return nil, err
				}
				logger.Warn("Failed to resolve GitHub user", "user", u.Username, "id", id, "error", err)
			} else {
				entry.GitHub = login
				mapped++
			}
		}
		entries = append(entries, entry)
	}
	logger.Info("Mapped users", "total", len(entries), "mapped", mapped)
	return entries, nil
}
