package cmd

import (
	"fmt"

	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/git"
	"github.com/krrrr38/gl2gh/pkg/migration"
	"github.com/spf13/cobra"
)

func NewMigrateSnippetsCommand(cfg *config.GlobalConfig) *cobra.Command {
	var (
		branch string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "migrate-snippets",
		Short: "Commit every GitLab snippet into a git repository",
		Long: `Commit every personal and project snippet into the repository at SNIPPET_REPO_GIT_URL.
Project snippets go under their project path, personal snippets under their author.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			g := git.NewGit(cfg.WorkingDir).WithIdentity(migration.ReadmeCommitter.Name, migration.ReadmeCommitter.Email)
			n, err := migration.ArchiveSnippets(cmd.Context(), gl, g, migration.SnippetArchiveOptions{
				RepoURL: cfg.SnippetRepoGitURL,
				Branch:  branch,
				DryRun:  dryRun,
			})
			if err != nil {
				return fmt.Errorf("failed to archive snippets after %d: %w", n, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "master", "Branch of the snippet repository to push")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Commit locally without pushing")
	return cmd
}
