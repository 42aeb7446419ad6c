package github

import (
	"context"
	"fmt"
)

// UserLogin returns the login of the user with the given id.
func (client *Client) UserLogin(ctx context.Context, id int64) (string, error) {
	var login string
	err := client.do(ctx, client.endpointGate, func() error {
		user, _, err := client.inner.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		login = user.GetLogin()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub user %d: %w", id, err)
	}
	return login, nil
}
