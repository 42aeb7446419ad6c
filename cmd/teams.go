package cmd

import (
	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/migration"
	"github.com/spf13/cobra"
)

func NewAddTeamCommand(cfg *config.GlobalConfig) *cobra.Command {
	var team, keyword string
	cmd := &cobra.Command{
		Use:   "add-team",
		Short: "Grant a team push access to every repository whose name contains a keyword",
		RunE: func(cmd *cobra.Command, args []string) error {
			gh, err := newGitHubClient(cfg)
			if err != nil {
				return err
			}
			added, err := migration.AddTeamToRepositories(cmd.Context(), gh, team, keyword)
			if err != nil {
				return err
			}
			logger.Info("Added team to repositories", "team", team, "repositories", len(added))
			return nil
		},
	}
	cmd.Flags().StringVarP(&team, "team", "t", "", "Team slug or part of it; exactly one team must match")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword repository names must contain")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("keyword")
	return cmd
}
