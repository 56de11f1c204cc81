package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// GroupCmd holds the group cmd flags
type GroupCmd struct {
	*GlobalFlags

	User      string
	Anonymous string
	Group     string
	Traits    []string
}

// NewGroupCmd creates a new group command
func NewGroupCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &GroupCmd{GlobalFlags: globalFlags}
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Associates a user with a group",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	groupCmd.Flags().StringVar(&cmd.User, "user", "", "The user id to associate")
	groupCmd.Flags().StringVar(&cmd.Anonymous, "anonymous", "", "The anonymous id to use instead of a user id")
	groupCmd.Flags().StringVar(&cmd.Group, "group", "", "The group id the user belongs to")
	groupCmd.Flags().StringArrayVarP(&cmd.Traits, "trait", "t", nil, "A key=value group trait, repeatable")
	_ = groupCmd.MarkFlagRequired("group")
	return groupCmd
}

// Run runs the command logic
func (cmd *GroupCmd) Run() error {
	client, logger, err := cmd.Client()
	if err != nil {
		return err
	}
	defer client.Close()

	traits, err := parseKV(cmd.Traits)
	if err != nil {
		return err
	}

	user, anonymous := identity(cmd.User, cmd.Anonymous, logger)
	if _, err := client.Group(analytics.Group{
		UserID:      user,
		AnonymousID: anonymous,
		GroupID:     cmd.Group,
		Traits:      traits,
	}); err != nil {
		return err
	}
	return finish(client)
}
