package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// IdentifyCmd holds the identify cmd flags
type IdentifyCmd struct {
	*GlobalFlags

	User      string
	Anonymous string
	Traits    []string
}

// NewIdentifyCmd creates a new identify command
func NewIdentifyCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &IdentifyCmd{GlobalFlags: globalFlags}
	identifyCmd := &cobra.Command{
		Use:   "identify",
		Short: "Associates traits with a user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	identifyCmd.Flags().StringVar(&cmd.User, "user", "", "The user id to identify")
	identifyCmd.Flags().StringVar(&cmd.Anonymous, "anonymous", "", "The anonymous id to use instead of a user id")
	identifyCmd.Flags().StringArrayVarP(&cmd.Traits, "trait", "t", nil, "A key=value trait, repeatable")
	return identifyCmd
}

// Run runs the command logic
func (cmd *IdentifyCmd) Run() error {
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
	if _, err := client.Identify(analytics.Identify{
		UserID:      user,
		AnonymousID: anonymous,
		Traits:      traits,
	}); err != nil {
		return err
	}
	return finish(client)
}
