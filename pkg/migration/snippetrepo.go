package migration

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	glclient "github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/xanzy/go-gitlab"
)

// SnippetSource lists personal and project snippets.
type SnippetSource interface {
	Users(ctx context.Context) ([]*gitlab.User, error)
	UserSnippets(ctx context.Context, userID int) ([]*glclient.Snippet, error)
	Groups(ctx context.Context) ([]*gitlab.Group, error)
	GroupProjects(ctx context.Context, group interface{}) ([]*gitlab.Project, error)
	ProjectSnippets(ctx context.Context, projectID int) ([]*glclient.Snippet, error)
	SnippetContent(ctx context.Context, s *glclient.Snippet) ([]byte, error)
}

// SnippetRepository is the git working copy snippets are committed to. *git.Git implements it.
type SnippetRepository interface {
	Clone(ctx context.Context, url, dir string) (string, error)
	CommitAll(ctx context.Context, repoDir, message string) error
	Push(ctx context.Context, repoDir, branch string) error
}

// SnippetArchiveOptions configures ArchiveSnippets.
type SnippetArchiveOptions struct {
	RepoURL string
	Branch  string
	DryRun  bool
}

type archivedSnippet struct {
	snippet *glclient.Snippet
	dir     string
}

// ArchiveSnippets commits every personal and project snippet into a git repository, one commit
// per snippet, and lists them in its README. Nothing is pushed on a dry run.
func ArchiveSnippets(ctx context.Context, src SnippetSource, repo SnippetRepository, opts SnippetArchiveOptions) (int, error) {
	if opts.RepoURL == "" {
		return 0, fmt.Errorf("a snippet repository URL is required")
	}
	if opts.Branch == "" {
		opts.Branch = "master"
	}

	snippets, err := collectSnippets(ctx, src)
	if err != nil {
		return 0, err
	}
	if len(snippets) == 0 {
		logger.Info("No snippets found")
		return 0, nil
	}

	dir, err := repo.Clone(ctx, opts.RepoURL, "snippets")
	if err != nil {
		return 0, err
	}
	readme, err := os.OpenFile(filepath.Join(dir, readmePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open README: %w", err)
	}
	defer readme.Close()

	var written int
	for _, a := range snippets {
		s := a.snippet
		content, err := src.SnippetContent(ctx, s)
		if err != nil {
			if isCanceled(err) {
				return written, err
			}
			logger.Error("Failed to read snippet", "snippet", s.ID, "error", err)
			continue
		}

		name := s.FileName
		if name == "" {
			name = fmt.Sprintf("snippet-%d.txt", s.ID)
		}
		if err := os.MkdirAll(filepath.Join(dir, a.dir), 0o755); err != nil {
			return written, err
		}
		rel := filepath.ToSlash(filepath.Join(a.dir, name))
		if err := os.WriteFile(filepath.Join(dir, rel), content, 0o644); err != nil {
			return written, err
		}
		meta := fmt.Sprintf("# %s\n\n%s\n", s.Title, s.Description)
		if err := os.WriteFile(filepath.Join(dir, rel+".md"), []byte(meta), 0o644); err != nil {
			return written, err
		}
		if _, err := fmt.Fprintf(readme, "| %s | [%s](%s) | %s |\n", s.Title, rel, url.PathEscape(rel), s.WebURL); err != nil {
			return written, err
		}
		if err := readme.Sync(); err != nil {
			return written, err
		}

		if err := repo.CommitAll(ctx, dir, fmt.Sprintf("Add snippet of %s - %s", a.dir, s.WebURL)); err != nil {
			return written, err
		}
		written++
		logger.Debug("Archived snippet", "snippet", s.ID, "path", rel)
	}

	if opts.DryRun {
		logger.Info("Dry run, not pushing snippet repository", "dir", dir, "snippets", written)
		return written, nil
	}
	if err := repo.Push(ctx, dir, opts.Branch); err != nil {
		return written, err
	}
	logger.Info("Pushed snippet repository", "snippets", written)
	return written, nil
}

// collectSnippets gathers project snippets followed by personal ones, once per snippet id.
func collectSnippets(ctx context.Context, src SnippetSource) ([]archivedSnippet, error) {
	byID := make(map[int]archivedSnippet)

	groups, err := src.Groups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		projects, err := src.GroupProjects(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if !p.SnippetsEnabled {
				continue
			}
			snippets, err := src.ProjectSnippets(ctx, p.ID)
			if err != nil {
				logger.Warn("Failed to list project snippets", "project", p.PathWithNamespace, "error", err)
				continue
			}
			for _, s := range snippets {
				byID[s.ID] = archivedSnippet{snippet: s, dir: p.PathWithNamespace}
			}
		}
	}

	users, err := src.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		snippets, err := src.UserSnippets(ctx, u.ID)
		if err != nil {
			logger.Warn("Failed to list user snippets", "user", u.Username, "error", err)
			continue
		}
		for _, s := range snippets {
			if _, ok := byID[s.ID]; ok || s.IsProjectSnippet() {
				continue
			}
			dir := s.Author.Username
			if dir == "" {
				dir = u.Username
			}
			byID[s.ID] = archivedSnippet{snippet: s, dir: dir}
		}
	}

	ret := make([]archivedSnippet, 0, len(byID))
	for _, a := range byID {
		ret = append(ret, a)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].snippet.ID < ret[j].snippet.ID })
	return ret, nil
}
