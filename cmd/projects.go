package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/migration"
	"github.com/krrrr38/gl2gh/pkg/render"
	"github.com/spf13/cobra"
)

func NewListReposCommand(cfg *config.GlobalConfig) *cobra.Command {
	var export string
	cmd := &cobra.Command{
		Use:   "list-repos",
		Short: "List active GitLab projects by group",
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			listings, err := migration.ListActiveProjects(cmd.Context(), gl)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			switch strings.ToLower(export) {
			case "":
				fmt.Fprintln(cmd.OutOrStdout(), render.Table([]string{"Group", "Project Name"}, migration.ListingRows(listings)))
				return nil
			case "csv":
				return writeFile("gitlab-projects.csv", func(f *os.File) error {
					return migration.WriteListingsCSV(f, listings)
				})
			case "json":
				return writeFile("gitlab-projects.json", func(f *os.File) error {
					return migration.WriteListingsJSON(f, listings)
				})
			default:
				return fmt.Errorf("unknown export format %q, use csv or json", export)
			}
		},
	}
	cmd.Flags().StringVar(&export, "export", "", "Write the listing to a file: csv or json")
	return cmd
}

func NewArchiveCommand(cfg *config.GlobalConfig) *cobra.Command {
	var group, project string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive GitLab projects of a group, or a single project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			projects, err := gl.FindProjects(ctx, group, project)
			if err != nil {
				return fmt.Errorf("failed to find projects: %w", err)
			}
			if len(projects) == 0 {
				return fmt.Errorf("no project found in group %s", group)
			}

			fmt.Fprintln(cmd.OutOrStdout(), projectTable(projects...))
			question := fmt.Sprintf("Archive %d projects? [y/N]", len(projects))
			if !cfg.Yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question, "y", "yes") {
				logger.Info("Archive cancelled")
				return nil
			}
			archived, err := migration.ArchiveProjects(ctx, gl, projects)
			logger.Info("Archived projects", "archived", archived, "projects", len(projects))
			return err
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "GitLab group full path")
	cmd.Flags().StringVarP(&project, "project", "p", "", "GitLab project name, all projects of the group when empty")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func NewDeleteCommand(cfg *config.GlobalConfig) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the GitLab projects listed in a CSV file",
		Long: fmt.Sprintf(`Delete the GitLab projects listed in the %q column of a CSV file.
Deletion cannot be undone; type "yes" to confirm.`, migration.DeleteListColumn),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open delete list: %w", err)
			}
			paths, err := migration.ReadDeleteList(f)
			f.Close()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				logger.Info("Nothing to delete", "file", file)
				return nil
			}

			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(paths))
			for _, p := range paths {
				rows = append(rows, []string{p})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table([]string{migration.DeleteListColumn}, rows))
			question := fmt.Sprintf("Permanently delete %d projects? Type yes to continue:", len(paths))
			if !cfg.Yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question, "yes") {
				logger.Info("Delete cancelled")
				return nil
			}
			deleted, err := migration.DeleteProjects(cmd.Context(), gl, paths)
			logger.Info("Deleted projects", "deleted", deleted, "projects", len(paths))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file listing the projects to delete")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func NewWikiInfoCommand(cfg *config.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "wiki-info",
		Short: "List GitLab projects that have wiki pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			report, err := migration.WikiReport(cmd.Context(), gl)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(report))
			for _, r := range report {
				rows = append(rows, []string{render.Int(r.Project.ID), r.Project.PathWithNamespace, render.Int(r.Count)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table([]string{"ID", "Name", "Wiki Count"}, rows))
			return nil
		},
	}
}

func NewSnippetInfoCommand(cfg *config.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "snippet-info",
		Short: "List GitLab projects that have snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			report, err := migration.SnippetReport(cmd.Context(), gl)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(report))
			for _, r := range report {
				rows = append(rows, []string{render.Int(r.Project.ID), r.Project.PathWithNamespace, r.Group, render.Int(r.Count)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table([]string{"ID", "Name", "Group", "Snippet Count"}, rows))
			return nil
		},
	}
}

func NewStatsCommand(cfg *config.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of active GitLab projects, most open issues first",
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			stats, err := migration.ActiveStatistics(cmd.Context(), gl)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(stats))
			var total int64
			for _, s := range stats {
				forked := "-"
				if s.ForkedFromProject != nil {
					forked = s.ForkedFromProject.PathWithNamespace
				}
				active := "-"
				if s.LastActivityAt != nil {
					active = humanize.Time(*s.LastActivityAt)
				}
				total += s.Statistics.StorageSize
				rows = append(rows, []string{
					render.Int(s.ID),
					cfg.GitLabWebURL + "/" + s.PathWithNamespace,
					s.Namespace.FullPath,
					s.Path,
					render.Int(s.OpenIssuesCount),
					render.Count(s.Statistics.CommitCount),
					render.Bytes(s.Statistics.StorageSize),
					forked,
					active,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table(
				[]string{"ID", "URL", "Namespace", "Path", "Issues", "Commits", "Size", "Forked From", "Last Active"}, rows))
			logger.Info("Active projects", "projects", len(stats), "storage", render.Bytes(total))
			return nil
		},
	}
}

// writeFile creates name in the current directory and hands it to write.
func writeFile(name string, write func(f *os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("Exported", "file", name)
	return nil
}
