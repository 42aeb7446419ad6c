package github

import (
	"context"
	"fmt"
	"net/http"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
)

// Committer identifies the author of commits made through the contents API.
type Committer struct {
	Name  string
	Email string
}

// AppendToFile appends text to an existing file on a branch. ErrNotFound is returned when the
// file does not exist.
func (client *Client) AppendToFile(ctx context.Context, repo, branch, path, appendix, message string, committer Committer) error {
	var file *githublib.RepositoryContent
	err := client.do(ctx, client.clientGate, func() error {
		var err error
		file, _, _, err = client.inner.Repositories.GetContents(ctx, client.owner, repo, path,
			&githublib.RepositoryContentGetOptions{Ref: branch})
		return err
	})
	if statusCode(err) == http.StatusNotFound || (err == nil && file == nil) {
		return fmt.Errorf("%s on %s: %w", path, branch, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	current, err := file.GetContent()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	opts := &githublib.RepositoryContentFileOptions{
		Message: githublib.Ptr(message),
		Content: []byte(current + appendix),
		SHA:     githublib.Ptr(file.GetSHA()),
		Branch:  githublib.Ptr(branch),
	}
	if committer.Name != "" {
		opts.Committer = &githublib.CommitAuthor{
			Name:  githublib.Ptr(committer.Name),
			Email: githublib.Ptr(committer.Email),
		}
	}

	err = client.do(ctx, client.clientGate, func() error {
		_, _, err := client.inner.Repositories.UpdateFile(ctx, client.owner, repo, path, opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	logger.Debug("Updated file", "repo", repo, "branch", branch, "path", path)
	return nil
}
