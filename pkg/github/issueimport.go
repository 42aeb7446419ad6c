package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/utils"
)

// ImportMediaType enables the issue import preview API.
const ImportMediaType = "application/vnd.github.golden-comet-preview+json"

// Import status values.
const (
	ImportPending  = "pending"
	ImportImported = "imported"
	ImportFailed   = "failed"
)

// IssueImportRequest is the payload of one issue import.
type IssueImportRequest struct {
	Issue    ImportedIssue   `json:"issue"`
	Comments []ImportComment `json:"comments,omitempty"`
}

// ImportedIssue is the issue part of an import payload.
type ImportedIssue struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Assignee  string     `json:"assignee,omitempty"`
	Milestone int        `json:"milestone,omitempty"`
	Closed    bool       `json:"closed"`
	Labels    []string   `json:"labels,omitempty"`
}

// ImportComment is a comment imported with its issue.
type ImportComment struct {
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Clone returns a deep copy so a payload can be changed and resubmitted.
func (r *IssueImportRequest) Clone() *IssueImportRequest {
	c := *r
	c.Issue.Labels = append([]string(nil), r.Issue.Labels...)
	c.Comments = append([]ImportComment(nil), r.Comments...)
	return &c
}

// ImportStatus is the acknowledgment of an issue import.
type ImportStatus struct {
	ID              int64         `json:"id"`
	Status          string        `json:"status"`
	URL             string        `json:"url"`
	ImportIssuesURL string        `json:"import_issues_url"`
	RepositoryURL   string        `json:"repository_url"`
	IssueURL        string        `json:"issue_url,omitempty"`
	Errors          []ImportError `json:"errors,omitempty"`
}

// ImportError is one field level failure of an import.
type ImportError struct {
	Location string `json:"location"`
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Code     string `json:"code"`
}

// IssueNumber returns the issue number from the last path segment of the issue URL.
func (s *ImportStatus) IssueNumber() (int, error) {
	if s.IssueURL == "" {
		return 0, fmt.Errorf("import %d has no issue url", s.ID)
	}
	n, err := strconv.Atoi(path.Base(strings.TrimRight(s.IssueURL, "/")))
	if err != nil {
		return 0, fmt.Errorf("unexpected issue url %q: %w", s.IssueURL, err)
	}
	return n, nil
}

// SubmitIssueImport starts an asynchronous import of one issue with its comments.
func (client *Client) SubmitIssueImport(ctx context.Context, repo string, payload *IssueImportRequest) (*ImportStatus, error) {
	payload.Issue.Title = utils.TruncateText(payload.Issue.Title, utils.MaxTitleLength)
	payload.Issue.Body = utils.TruncateText(payload.Issue.Body, utils.MaxBodyLength)
	for i := range payload.Comments {
		payload.Comments[i].Body = utils.TruncateText(payload.Comments[i].Body, utils.MaxCommentLength)
	}

	u := fmt.Sprintf("repos/%v/%v/import/issues", client.owner, repo)
	status := new(ImportStatus)
	err := client.do(ctx, client.endpointGate, func() error {
		if err := client.pause(ctx); err != nil {
			return err
		}
		req, err := client.inner.NewRequest(http.MethodPost, u, payload)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", ImportMediaType)
		_, err = client.inner.Do(ctx, req, status)
		return acceptedInto(err, status)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit issue import: %w", err)
	}

	logger.Debug("Submitted issue import", "repo", repo, "status", status.Status, "url", status.URL)
	return status, nil
}

// ImportStatus fetches the current state of an import from its status URL.
func (client *Client) ImportStatus(ctx context.Context, statusURL string) (*ImportStatus, error) {
	status := new(ImportStatus)
	err := client.do(ctx, client.endpointGate, func() error {
		req, err := client.inner.NewRequest(http.MethodGet, statusURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", ImportMediaType)
		_, err = client.inner.Do(ctx, req, status)
		return acceptedInto(err, status)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get import status: %w", err)
	}
	return status, nil
}

// acceptedInto decodes a 202 Accepted body, which go-github reports as an error.
func acceptedInto(err error, v interface{}) error {
	var accepted *githublib.AcceptedError
	if !errors.As(err, &accepted) {
		return err
	}
	if len(accepted.Raw) == 0 {
		return nil
	}
	if jsonErr := json.Unmarshal(accepted.Raw, v); jsonErr != nil {
		return fmt.Errorf("failed to decode accepted response: %w", jsonErr)
	}
	return nil
}
