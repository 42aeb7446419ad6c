package cmd

import (
	"errors"
	"fmt"

	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/github"
	"github.com/krrrr38/gl2gh/pkg/gitlab"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/spf13/cobra"
)

// envFile is read before every command. Variables already set in the environment win.
const envFile = ".env"

func NewRootCommand() *cobra.Command {
	cfg := &config.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "gl2gh",
		Short: "Migrate GitLab projects to GitHub",
		Long: `Migrate GitLab projects to GitHub.
This tool performs:
- Repository mirroring with branches and tags
- Migration of labels, milestones, issues, merge requests, snippets and wikis
- Housekeeping of the GitLab instance (listing, archiving, deleting, user export)`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cmd.Flags(), envFile)
			if err != nil {
				return err
			}
			*cfg = *loaded
			if cfg.LogLevel != "" {
				logger.SetLevel(cfg.LogLevel)
			}
			return nil
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("gitlab-token", "", "GitLab API token (or set GITLAB_TOKEN env)")
	flags.String("gitlab-url", "https://gitlab.com/api/v4", "GitLab API endpoint (or set GITLAB_API_ENDPOINT env)")
	flags.String("gitlab-web-url", "", "GitLab web URL, derived from the API endpoint when empty (or set GITLAB_WEB_URL env)")
	flags.String("github-token", "", "GitHub token (or set GITHUB_OAUTH_TOKEN env)")
	flags.String("github-url", "", "GitHub API URL for GitHub Enterprise Server (or set GITHUB_API_URL env)")
	flags.Int64("github-app-id", 0, "GitHub App ID (or set GITHUB_APP_ID env)")
	flags.Int64("github-app-installation-id", 0, "GitHub App installation ID (or set GITHUB_APP_INSTALLATION_ID env)")
	flags.String("github-app-private-key", "", "GitHub App private key (or set GITHUB_APP_PRIVATE_KEY env)")
	flags.Bool("github-app-private-key-as-file", false, "Treat the GitHub App private key as a file path")
	flags.String("github-org", "", "GitHub organisation (or set GITHUB_ORGANISATION env)")
	flags.String("snippet-repo", "", "Git URL of the repository snippets are archived to (or set SNIPPET_REPO_GIT_URL env)")
	flags.String("user-map", "", "CSV file mapping GitLab usernames to GitHub usernames (or set USER_MAP_PATH env)")
	flags.String("working-dir", "./tmp", "Working directory for git operations")
	flags.String("log-level", logger.DefaultLevel, "Log level (debug, info, warn, error, fatal)")
	flags.BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(
		NewMigrateCommand(cfg),
		NewListReposCommand(cfg),
		NewArchiveCommand(cfg),
		NewDeleteCommand(cfg),
		NewUsersCommand(cfg),
		NewAddTeamCommand(cfg),
		NewMigrateSnippetsCommand(cfg),
		NewWikiInfoCommand(cfg),
		NewSnippetInfoCommand(cfg),
		NewStatsCommand(cfg),
	)

	return rootCmd
}

func newGitLabClient(cfg *config.GlobalConfig) (*gitlab.Client, error) {
	if err := cfg.ValidateGitLab(); err != nil {
		return nil, err
	}
	return gitlab.NewClient(cfg.GitLabToken, cfg.GitLabURL)
}

func newGitHubClient(cfg *config.GlobalConfig) (*github.Client, error) {
	if err := cfg.ValidateGitHub(); err != nil {
		return nil, err
	}
	var opts []github.Option
	if cfg.GitHubURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHubURL))
	}

	switch {
	case cfg.GitHubToken != "":
		return github.NewClientByPAT(cfg.GitHubToken, cfg.GitHubOrganisation, opts...)
	case cfg.HasGitHubApp():
		return github.NewClientByApp(cfg.GitHubAppID, cfg.GitHubAppInstallationID, cfg.GitHubAppPrivateKey, cfg.GitHubOrganisation, opts...)
	default:
		return nil, errors.New("GitHub token or GitHub App settings are required")
	}
}

func newClients(cfg *config.GlobalConfig) (*gitlab.Client, *github.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	gl, err := newGitLabClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	gh, err := newGitHubClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return gl, gh, nil
}
