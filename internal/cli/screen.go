package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// ScreenCmd holds the screen cmd flags
type ScreenCmd struct {
	*GlobalFlags

	User       string
	Anonymous  string
	Name       string
	Properties []string
}

// NewScreenCmd creates a new screen command
func NewScreenCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &ScreenCmd{GlobalFlags: globalFlags}
	screenCmd := &cobra.Command{
		Use:   "screen",
		Short: "Records a mobile screen view",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	screenCmd.Flags().StringVar(&cmd.User, "user", "", "The user id the view belongs to")
	screenCmd.Flags().StringVar(&cmd.Anonymous, "anonymous", "", "The anonymous id to use instead of a user id")
	screenCmd.Flags().StringVar(&cmd.Name, "name", "", "The name of the screen")
	screenCmd.Flags().StringArrayVarP(&cmd.Properties, "property", "p", nil, "A key=value property, repeatable")
	return screenCmd
}

// Run runs the command logic
func (cmd *ScreenCmd) Run() error {
	client, logger, err := cmd.Client()
	if err != nil {
		return err
	}
	defer client.Close()

	properties, err := parseKV(cmd.Properties)
	if err != nil {
		return err
	}

	user, anonymous := identity(cmd.User, cmd.Anonymous, logger)
	if _, err := client.Screen(analytics.Screen{
		UserID:      user,
		AnonymousID: anonymous,
		Name:        cmd.Name,
		Properties:  properties,
	}); err != nil {
		return err
	}
	return finish(client)
}
