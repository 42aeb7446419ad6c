package github

import (
	"context"
	"fmt"
	"strings"

	githublib "github.com/google/go-github/v70/github"
)

// CreateLabel creates a label. ErrAlreadyExists is returned when the name is taken.
func (client *Client) CreateLabel(ctx context.Context, repo, name, color, description string) error {
	label := &githublib.Label{
		Name:  githublib.Ptr(name),
		Color: githublib.Ptr(strings.TrimPrefix(color, "#")),
	}
	if description != "" {
		label.Description = githublib.Ptr(description)
	}

	err := client.do(ctx, client.clientGate, func() error {
		_, _, err := client.inner.Issues.CreateLabel(ctx, client.owner, repo, label)
		return err
	})
	if isAlreadyExists(err) {
		return fmt.Errorf("label %q: %w", name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return nil
}

// AddLabelsToIssue adds labels to an issue or pull request.
func (client *Client) AddLabelsToIssue(ctx context.Context, repo string, number int, labels []string) error {
	err := client.do(ctx, client.clientGate, func() error {
		_, _, err := client.inner.Issues.AddLabelsToIssue(ctx, client.owner, repo, number, labels)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add labels to #%d: %w", number, err)
	}
	return nil
}
