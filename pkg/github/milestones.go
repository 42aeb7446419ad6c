package github

import (
	"context"
	"fmt"
	"time"

	githublib "github.com/google/go-github/v70/github"
)

// MilestoneOptions describes a milestone to create.
type MilestoneOptions struct {
	Title       string
	State       string
	Description string
	DueOn       *time.Time
}

// CreateMilestone creates a milestone and returns its number.
func (client *Client) CreateMilestone(ctx context.Context, repo string, opts MilestoneOptions) (int, error) {
	m := &githublib.Milestone{
		Title:       githublib.Ptr(opts.Title),
		Description: githublib.Ptr(opts.Description),
	}
	if opts.State != "" {
		m.State = githublib.Ptr(opts.State)
	}
	if opts.DueOn != nil {
		m.DueOn = &githublib.Timestamp{Time: *opts.DueOn}
	}

	var created *githublib.Milestone
	err := client.do(ctx, client.clientGate, func() error {
		var err error
		created, _, err = client.inner.Issues.CreateMilestone(ctx, client.owner, repo, m)
		return err
	})
	if isAlreadyExists(err) {
		return 0, fmt.Errorf("milestone %q: %w", opts.Title, ErrAlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create milestone %q: %w", opts.Title, err)
	}
	return created.GetNumber(), nil
}

// SetMilestone sets the milestone of an issue or pull request.
func (client *Client) SetMilestone(ctx context.Context, repo string, number, milestone int) error {
	err := client.do(ctx, client.clientGate, func() error {
		_, _, err := client.inner.Issues.Edit(ctx, client.owner, repo, number, &githublib.IssueRequest{
			Milestone: githublib.Ptr(milestone),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set milestone of #%d: %w", number, err)
	}
	return nil
}
