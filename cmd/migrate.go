package cmd

import (
	"bufio"
	"fmt"

	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/git"
	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/idmap"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/migration"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(cfg *config.GlobalConfig) *cobra.Command {
	var migrateConfig config.MigrateConfig
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate GitLab projects to GitHub",
		Long: `Migrate every project of a group, or a single project found by name, to GitHub.
Stages run in order: mirror, labels, milestones, snippets, issues, pr, wiki, archive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, cfg, migrateConfig)
		},
	}

	// Migrate command specific flags
	cmd.Flags().StringVarP(&migrateConfig.Group, "group", "g", "", "GitLab group full path")
	cmd.Flags().StringVarP(&migrateConfig.Project, "project", "p", "", "GitLab project name, all projects of the group when empty")
	cmd.Flags().StringSliceVarP(&migrateConfig.Includes, "include", "i", []string{"all"}, "Stages to run: all, mirror, labels, milestones, snippets, issues, pr, wiki, archive")
	cmd.Flags().StringVar(&migrateConfig.Visibility, "visibility", string(github.VisibilityPrivate), "Visibility of created repositories: private, internal, public")
	cmd.Flags().StringVar(&migrateConfig.GitHubName, "github-name", "", "Name of the created repository, only with a single project")
	cmd.Flags().BoolVar(&migrateConfig.UseRepoName, "use-repo-name", false, "Name the repository after the project path without the namespace")
	cmd.Flags().BoolVar(&migrateConfig.NoAssignee, "no-assignee", false, "Credit assignees in the issue text instead of assigning them")
	cmd.Flags().DurationVar(&migrateConfig.PollInterval, "poll-interval", migration.DefaultPollInterval, "Wait between two issue import status checks")
	cmd.Flags().IntVar(&migrateConfig.MaxPolls, "max-polls", migration.DefaultMaxPolls, "Status checks before an issue import is given up")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func runMigration(cmd *cobra.Command, cfg *config.GlobalConfig, migrateConfig config.MigrateConfig) error {
	ctx := cmd.Context()

	includes, err := migration.ParseIncludes(migrateConfig.Includes)
	if err != nil {
		return err
	}
	visibility, err := github.ParseVisibility(migrateConfig.Visibility)
	if err != nil {
		return err
	}
	gl, gh, err := newClients(cfg)
	if err != nil {
		return err
	}
	users, err := usermap.Load(cfg.UserMapPath)
	if err != nil {
		return err
	}
	logger.Info("Loaded user map", "users", users.Len())

	projects, err := gl.FindProjects(ctx, migrateConfig.Group, migrateConfig.Project)
	if err != nil {
		return fmt.Errorf("failed to find projects: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Errorf("no project found in group %s", migrateConfig.Group)
	}
	if migrateConfig.GitHubName != "" && len(projects) > 1 {
		return fmt.Errorf("--github-name needs a single project, %d found", len(projects))
	}

	importer := migration.NewImporter(gl, gh, idmap.NewMapper(), idmap.NewCollaboratorCache(), users, migration.ImporterOptions{
		PollInterval: migrateConfig.PollInterval,
		MaxPolls:     migrateConfig.MaxPolls,
		NoAssignee:   migrateConfig.NoAssignee,
	})
	driver := migration.NewDriver(gl, gh, git.NewGit(cfg.WorkingDir), importer, users, migration.DriverOptions{
		Includes:    includes,
		Visibility:  visibility,
		GitHubName:  migrateConfig.GitHubName,
		UseRepoName: migrateConfig.UseRepoName,
		WebURL:      cfg.GitLabWebURL,
	})

	logger.Info("Migration started...", "projects", len(projects))
	in := bufio.NewReader(cmd.InOrStdin())
	var migrated int
	for _, p := range projects {
		fmt.Fprintln(cmd.OutOrStdout(), projectTable(p))
		if !cfg.Yes && !confirm(in, cmd.OutOrStdout(), fmt.Sprintf("Migrate %s? [y/N]", p.PathWithNamespace), "y", "yes") {
			logger.Info("Skipped project", "project", p.PathWithNamespace)
			continue
		}
		if err := driver.Migrate(ctx, p); err != nil {
			if migration.IsFatal(err) || ctx.Err() != nil {
				return err
			}
			logger.Error("Failed to migrate project", "project", p.PathWithNamespace, "error", err)
			continue
		}
		migrated++
	}

	logger.Info("Migration completed", "migrated", migrated, "projects", len(projects))
	return nil
}
