package github

import (
	"context"
	"fmt"

	githublib "github.com/google/go-github/v70/github"
)

// CreateGist creates a gist with the given files and returns its page URL.
func (client *Client) CreateGist(ctx context.Context, description string, public bool, files map[string]string) (string, error) {
	gist := &githublib.Gist{
		Description: githublib.Ptr(description),
		Public:      githublib.Ptr(public),
		Files:       make(map[githublib.GistFilename]githublib.GistFile, len(files)),
	}
	for name, content := range files {
		gist.Files[githublib.GistFilename(name)] = githublib.GistFile{Content: githublib.Ptr(content)}
	}

	var created *githublib.Gist
	err := client.do(ctx, client.clientGate, func() error {
		var err error
		created, _, err = client.inner.Gists.Create(ctx, gist)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gist: %w", err)
	}
	return created.GetHTMLURL(), nil
}
