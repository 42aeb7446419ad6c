package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
)

// ReadmeCommitter authors the README update that links the snippet gist.
var ReadmeCommitter = github.Committer{Name: "rtBot", Email: "43742164+rtBot@users.noreply.github.com"}

const readmePath = "README.md"

// ImportSnippets copies the project snippets into one secret gist and links it from the
// README of the destination repository. When the README does not exist the link is logged.
func (im *Importer) ImportSnippets(ctx context.Context, t *Target) error {
	snippets, err := im.source.ProjectSnippets(ctx, t.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to list snippets: %w", err)
	}
	if len(snippets) == 0 {
		logger.Step("snippets", "No snippets", "repo", t.Repo)
		return nil
	}

	files := make(map[string]string, len(snippets))
	for _, s := range snippets {
		content, err := im.source.SnippetContent(ctx, s)
		if err != nil {
			if isCanceled(err) {
				return err
			}
			logger.Error("Failed to read snippet", "repo", t.Repo, "snippet", s.ID, "error", err)
			continue
		}
		if len(content) == 0 {
			continue
		}
		name := s.FileName
		if _, taken := files[name]; name == "" || taken {
			name = t.Project.Path + "-" + uuid.NewString()
			if s.FileName != "" {
				name += "-" + s.FileName
			}
		}
		files[name] = string(content)
	}
	if len(files) == 0 {
		logger.Step("snippets", "No snippet content", "repo", t.Repo)
		return nil
	}

	url, err := im.dest.CreateGist(ctx, t.Project.Path, false, files)
	if err != nil {
		return err
	}
	logger.Step("snippets", "Created gist", "repo", t.Repo, "files", len(files), "url", url)

	branch := t.Project.DefaultBranch
	if branch == "" {
		branch = "master"
	}
	links := []string{url}
	appendix := "\n\n### Snippets\n\n" + strings.Join(links, "\n")
	err = im.dest.AppendToFile(ctx, t.Repo, branch, readmePath, appendix, "Update README with gist links", ReadmeCommitter)
	if errors.Is(err, github.ErrNotFound) {
		logger.Warn("README not found, add the gist links manually", "repo", t.Repo, "links", strings.Join(links, " "))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Step("snippets", "Linked gist from README", "repo", t.Repo, "branch", branch)
	return nil
}
