package cmd

import (
	"fmt"
	"os"

	"github.com/krrrr38/gl2gh/pkg/config"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/krrrr38/gl2gh/pkg/migration"
	"github.com/krrrr38/gl2gh/pkg/usermap"
	"github.com/spf13/cobra"
)

func NewUsersCommand(cfg *config.GlobalConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Export GitLab users and build the user map",
	}
	cmd.AddCommand(newUsersExportCommand(cfg), newUsersMapCommand(cfg))
	return cmd
}

func newUsersExportCommand(cfg *config.GlobalConfig) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every GitLab user to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, err := newGitLabClient(cfg)
			if err != nil {
				return err
			}
			return writeFile(output, func(f *os.File) error {
				n, err := migration.ExportUsers(cmd.Context(), gl, f)
				if err != nil {
					return err
				}
				logger.Info("Exported users", "users", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "all-users.csv", "CSV file to write")
	return cmd
}

func newUsersMapCommand(cfg *config.GlobalConfig) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Build the user map from GitHub identities linked to GitLab accounts",
		Long: `Build the user map from GitHub identities linked to GitLab accounts.
Users without a linked identity are written with an empty GitHub username; fill them in by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gl, gh, err := newClients(cfg)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.UserMapPath
			}
			if output == "" {
				return fmt.Errorf("an output file is required, pass --output or set USER_MAP_PATH")
			}

			entries, err := migration.MapUsers(cmd.Context(), gl, gh)
			if err != nil {
				return err
			}
			return writeFile(output, func(f *os.File) error {
				return usermap.Write(f, entries)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write, the configured user map when empty")
	return cmd
}
