package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// PageCmd holds the page cmd flags
type PageCmd struct {
	*GlobalFlags

	User       string
	Anonymous  string
	Name       string
	Properties []string
}

// NewPageCmd creates a new page command
func NewPageCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &PageCmd{GlobalFlags: globalFlags}
	pageCmd := &cobra.Command{
		Use:   "page",
		Short: "Records a web page view",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	pageCmd.Flags().StringVar(&cmd.User, "user", "", "The user id the view belongs to")
	pageCmd.Flags().StringVar(&cmd.Anonymous, "anonymous", "", "The anonymous id to use instead of a user id")
	pageCmd.Flags().StringVar(&cmd.Name, "name", "", "The name of the page")
	pageCmd.Flags().StringArrayVarP(&cmd.Properties, "property", "p", nil, "A key=value property, repeatable")
	return pageCmd
}

// Run runs the command logic
func (cmd *PageCmd) Run() error {
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
	if _, err := client.Page(analytics.Page{
		UserID:      user,
		AnonymousID: anonymous,
		Name:        cmd.Name,
		Properties:  properties,
	}); err != nil {
		return err
	}
	return finish(client)
}
