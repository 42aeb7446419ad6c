// Package git drives the git binary for repository mirroring and the snippet archive repository.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/utils"
)

// Runner executes an external command. utils.ExecuteCommand is the production runner.
type Runner func(ctx context.Context, c utils.Command) (string, error)

// Git runs git commands below a working directory.
type Git struct {
	workingDir string
	run        Runner

	userName  string
	userEmail string
}

func NewGit(workingDir string) *Git {
	return &Git{workingDir: workingDir, run: utils.ExecuteCommand}
}

// NewGitWithRunner is used by tests to record commands instead of running them.
func NewGitWithRunner(workingDir string, run Runner) *Git {
	return &Git{workingDir: workingDir, run: run}
}

// WithIdentity sets the author of commits made in clones.
func (g *Git) WithIdentity(name, email string) *Git {
	g.userName = name
	g.userEmail = email
	return g
}

func (g *Git) git(ctx context.Context, dir string, args ...string) (string, error) {
	return g.run(ctx, utils.Command{Dir: dir, Name: "git", Args: args})
}

// Mirror copies every ref of the source repository to the destination. The bare clone is made
// under the working directory and removed afterwards.
func (g *Git) Mirror(ctx context.Context, sourceURL, destinationURL, name string) error {
	if err := utils.CleanupDirectory(g.workingDir); err != nil {
		return err
	}
	dir := filepath.Join(g.workingDir, name+".git")
	defer func() {
		if err := utils.CleanupDirectory(g.workingDir); err != nil {
			logger.Warn("Failed to clean up working directory", "dir", g.workingDir, "error", err)
		}
	}()

	if _, err := g.git(ctx, g.workingDir, "clone", "--bare", sourceURL, dir); err != nil {
		return fmt.Errorf("failed to clone source repository: %w", err)
	}
	if _, err := g.git(ctx, dir, "remote", "add", "github", destinationURL); err != nil {
		return fmt.Errorf("failed to add destination remote: %w", err)
	}
	if _, err := g.git(ctx, dir, "push", "--mirror", "github"); err != nil {
		return fmt.Errorf("failed to push mirror: %w", err)
	}
	return nil
}

// Clone clones a repository into dir below the working directory and returns its path.
func (g *Git) Clone(ctx context.Context, url, dir string) (string, error) {
	if err := utils.CleanupDirectory(g.workingDir); err != nil {
		return "", err
	}
	path := filepath.Join(g.workingDir, dir)
	if _, err := g.git(ctx, g.workingDir, "clone", url, path); err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", dir, err)
	}
	if g.userName != "" {
		if _, err := g.git(ctx, path, "config", "--local", "user.name", g.userName); err != nil {
			return "", fmt.Errorf("failed to set git config user.name: %w", err)
		}
	}
	if g.userEmail != "" {
		if _, err := g.git(ctx, path, "config", "--local", "user.email", g.userEmail); err != nil {
			return "", fmt.Errorf("failed to set git config user.email: %w", err)
		}
	}
	return path, nil
}

// CommitAll stages every change in repoDir and commits it. A clean tree is not an error.
func (g *Git) CommitAll(ctx context.Context, repoDir, message string) error {
	if _, err := g.git(ctx, repoDir, "add", "."); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	status, err := g.git(ctx, repoDir, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		logger.Debug("Nothing to commit", "dir", repoDir)
		return nil
	}
	if _, err := g.git(ctx, repoDir, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// Push pushes a branch to origin.
func (g *Git) Push(ctx context.Context, repoDir, branch string) error {
	if _, err := g.git(ctx, repoDir, "push", "origin", branch); err != nil {
		return fmt.Errorf("failed to push %s: %w", branch, err)
	}
	return nil
}
