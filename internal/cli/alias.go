package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// AliasCmd holds the alias cmd flags
type AliasCmd struct {
	*GlobalFlags

	User     string
	Previous string
}

// NewAliasCmd creates a new alias command
func NewAliasCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &AliasCmd{GlobalFlags: globalFlags}
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Merges a previous identity into a user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	aliasCmd.Flags().StringVar(&cmd.User, "user", "", "The user id to keep")
	aliasCmd.Flags().StringVar(&cmd.Previous, "previous", "", "The previous id to merge")
	_ = aliasCmd.MarkFlagRequired("user")
	_ = aliasCmd.MarkFlagRequired("previous")
	return aliasCmd
}

// Run runs the command logic
func (cmd *AliasCmd) Run() error {
	client, _, err := cmd.Client()
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Alias(analytics.Alias{
		UserID:     cmd.User,
		PreviousID: cmd.Previous,
	}); err != nil {
		return err
	}
	return finish(client)
}
