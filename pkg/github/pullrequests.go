package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/utils"
)

// PullRequestOptions contains options for creating a pull request
type PullRequestOptions struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequestRejectedError is returned when the destination refuses to open a pull request,
// for example because a branch no longer exists.
type PullRequestRejectedError struct {
	Head     string
	Base     string
	Messages []string
	Err      error
}

func (e *PullRequestRejectedError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("pull request %s -> %s rejected: %v", e.Head, e.Base, e.Err)
	}
	return fmt.Sprintf("pull request %s -> %s rejected: %s", e.Head, e.Base, strings.Join(e.Messages, "; "))
}

func (e *PullRequestRejectedError) Unwrap() error {
	return e.Err
}

// CreatePullRequest opens a pull request and returns its number.
func (client *Client) CreatePullRequest(ctx context.Context, repo string, opts *PullRequestOptions) (int, error) {
	logger.Debug("Creating GitHub pull request",
		"owner", client.owner,
		"repo", repo,
		"head", opts.Head,
		"base", opts.Base,
		"title", utils.TruncateText(opts.Title, 50))

	newPR := &githublib.NewPullRequest{
		Title: githublib.Ptr(utils.TruncateText(opts.Title, utils.MaxTitleLength)),
		Body:  githublib.Ptr(utils.TruncateText(opts.Body, utils.MaxBodyLength)),
		Head:  githublib.Ptr(opts.Head),
		Base:  githublib.Ptr(opts.Base),
	}

	var pr *githublib.PullRequest
	err := client.do(ctx, client.endpointGate, func() error {
		if err := client.pause(ctx); err != nil {
			return err
		}
		var err error
		pr, _, err = client.inner.PullRequests.Create(ctx, client.owner, repo, newPR)
		return err
	})
	if err == nil {
		return pr.GetNumber(), nil
	}

	logger.Error("Failed to create GitHub PR",
		"owner", client.owner,
		"repo", repo,
		"head", opts.Head,
		"base", opts.Base,
		"error", err)

	var errResp *githublib.ErrorResponse
	if errors.As(err, &errResp) {
		var messages []string
		for _, e := range errResp.Errors {
			if strings.HasPrefix(e.Message, "No commits between") || e.Message == "At least one commit is required" ||
				strings.HasPrefix(e.Message, "No changes between") || e.Message == "There isn't anything to compare" {
				return 0, &NoDiffError{Head: opts.Head, Base: opts.Base}
			}
			if e.Message != "" {
				messages = append(messages, e.Message)
			} else {
				messages = append(messages, fmt.Sprintf("%s %s %s", e.Resource, e.Field, e.Code))
			}
		}
		if len(messages) > 0 || statusCode(err) == http.StatusNotFound || statusCode(err) == http.StatusUnprocessableEntity {
			return 0, &PullRequestRejectedError{Head: opts.Head, Base: opts.Base, Messages: messages, Err: err}
		}
	}
	return 0, fmt.Errorf("failed to create GitHub PR: %w", err)
}

// ClosePullRequest closes a pull request
func (client *Client) ClosePullRequest(ctx context.Context, repo string, number int) error {
	err := client.do(ctx, client.clientGate, func() error {
		_, resp, err := client.inner.PullRequests.Edit(ctx, client.owner, repo, number, &githublib.PullRequest{
			State: githublib.Ptr("closed"),
		})
		if err != nil && resp != nil {
			err = fmt.Errorf("%w, x-github-request-id: %s", err, resp.Header.Get("x-github-request-id"))
		}
		return err
	})
	if err != nil {
		logger.Error("Failed to close GitHub PR", "owner", client.owner, "repo", repo, "prNumber", number, "error", err)
		return fmt.Errorf("failed to close GitHub PR: %w", err)
	}
	return nil
}

// CreateIssueComment adds a comment to an issue or pull request.
func (client *Client) CreateIssueComment(ctx context.Context, repo string, number int, body string) error {
	truncatedBody := utils.TruncateText(body, utils.MaxCommentLength)
	err := client.do(ctx, client.clientGate, func() error {
		if err := client.pause(ctx); err != nil {
			return err
		}
		_, resp, err := client.inner.Issues.CreateComment(ctx, client.owner, repo, number,
			&githublib.IssueComment{Body: &truncatedBody})
		if err != nil && resp != nil {
			err = fmt.Errorf("%w, x-github-request-id: %s", err, resp.Header.Get("x-github-request-id"))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to comment on #%d: %w", number, err)
	}
	return nil
}
