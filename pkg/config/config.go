package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// GlobalConfig holds the settings shared by every command. It is built once per run.
type GlobalConfig struct {
	GitLabToken               string `mapstructure:"gitlab-token"`
	GitLabURL                 string `mapstructure:"gitlab-url"`
	GitLabWebURL              string `mapstructure:"gitlab-web-url"`
	GitHubToken               string `mapstructure:"github-token"`
	GitHubURL                 string `mapstructure:"github-url"`
	GitHubAppID               int64  `mapstructure:"github-app-id"`
	GitHubAppInstallationID   int64  `mapstructure:"github-app-installation-id"`
	GitHubAppPrivateKey       string `mapstructure:"github-app-private-key"`
	GitHubAppPrivateKeyAsFile bool   `mapstructure:"github-app-private-key-as-file"`
	GitHubOrganisation        string `mapstructure:"github-org"`
	SnippetRepoGitURL         string `mapstructure:"snippet-repo"`
	UserMapPath               string `mapstructure:"user-map"`
	WorkingDir                string `mapstructure:"working-dir"`
	LogLevel                  string `mapstructure:"log-level"`
	Yes                       bool   `mapstructure:"yes"`
}

// MigrateConfig holds the settings of the migrate command.
type MigrateConfig struct {
	Group        string
	Project      string
	Includes     []string
	Visibility   string
	GitHubName   string
	UseRepoName  bool
	NoAssignee   bool
	PollInterval time.Duration
	MaxPolls     int
}

// envBindings maps configuration keys to the environment variables that can set them.
var envBindings = map[string][]string{
	"gitlab-token":                   {"GITLAB_TOKEN"},
	"gitlab-url":                     {"GITLAB_API_ENDPOINT", "GITLAB_URL"},
	"gitlab-web-url":                 {"GITLAB_WEB_URL"},
	"github-token":                   {"GITHUB_OAUTH_TOKEN", "GITHUB_TOKEN"},
	"github-url":                     {"GITHUB_API_URL"},
	"github-app-id":                  {"GITHUB_APP_ID"},
	"github-app-installation-id":     {"GITHUB_APP_INSTALLATION_ID"},
	"github-app-private-key":         {"GITHUB_APP_PRIVATE_KEY"},
	"github-app-private-key-as-file": {"GITHUB_APP_PRIVATE_KEY_AS_FILE"},
	"github-org":                     {"GITHUB_ORGANISATION", "GITHUB_ORGANIZATION"},
	"snippet-repo":                   {"SNIPPET_REPO_GIT_URL"},
	"user-map":                       {"USER_MAP_PATH"},
	"working-dir":                    {"GL2GH_WORKING_DIR"},
	"log-level":                      {"GL2GH_LOG_LEVEL"},
}

// Load builds the configuration from flags, environment and an optional .env file.
// Flags set on the command line win over the environment, which wins over flag defaults.
// Variables already present in the environment are not overridden by the .env file.
func Load(flags *pflag.FlagSet, envFile string) (*GlobalConfig, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	var cfg GlobalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.GitLabURL = strings.TrimRight(cfg.GitLabURL, "/")
	cfg.GitLabWebURL = strings.TrimRight(cfg.GitLabWebURL, "/")
	if cfg.GitLabWebURL == "" {
		cfg.GitLabWebURL = webURLFromAPI(cfg.GitLabURL)
	}

	if cfg.GitHubAppPrivateKeyAsFile && cfg.GitHubAppPrivateKey != "" {
		privateKey, err := os.ReadFile(cfg.GitHubAppPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("could not read private key %s: %w", cfg.GitHubAppPrivateKey, err)
		}
		cfg.GitHubAppPrivateKey = string(privateKey)
	}

	return &cfg, nil
}

// webURLFromAPI derives the web base from an API endpoint such as https://gitlab.example.com/api/v4.
func webURLFromAPI(apiURL string) string {
	if i := strings.Index(apiURL, "/api/"); i >= 0 {
		return apiURL[:i]
	}
	return apiURL
}

// HasGitHubApp reports whether GitHub App credentials are configured.
func (c *GlobalConfig) HasGitHubApp() bool {
	return c.GitHubAppID > 0 && c.GitHubAppInstallationID > 0 && c.GitHubAppPrivateKey != ""
}

// ValidateGitLab reports missing source settings.
func (c *GlobalConfig) ValidateGitLab() error {
	var missing []string
	if c.GitLabToken == "" {
		missing = append(missing, "GITLAB_TOKEN")
	}
	if c.GitLabURL == "" {
		missing = append(missing, "GITLAB_API_ENDPOINT")
	}
	return missingError(missing)
}

// ValidateGitHub reports missing destination settings.
func (c *GlobalConfig) ValidateGitHub() error {
	var missing []string
	if c.GitHubToken == "" && !c.HasGitHubApp() {
		missing = append(missing, "GITHUB_OAUTH_TOKEN (or GitHub App settings)")
	}
	if c.GitHubOrganisation == "" {
		missing = append(missing, "GITHUB_ORGANISATION")
	}
	return missingError(missing)
}

// Validate reports every missing setting needed for a migration.
func (c *GlobalConfig) Validate() error {
	return errors.Join(c.ValidateGitLab(), c.ValidateGitHub())
}

func missingError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
}
