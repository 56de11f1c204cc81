package cli

import (
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// TrackCmd holds the track cmd flags
type TrackCmd struct {
	*GlobalFlags

	User       string
	Anonymous  string
	Event      string
	Properties []string
}

// NewTrackCmd creates a new track command
func NewTrackCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &TrackCmd{GlobalFlags: globalFlags}
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Records an action the user performed",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	trackCmd.Flags().StringVar(&cmd.User, "user", "", "The user id the event belongs to")
	trackCmd.Flags().StringVar(&cmd.Anonymous, "anonymous", "", "The anonymous id to use instead of a user id")
	trackCmd.Flags().StringVar(&cmd.Event, "event", "", "The name of the action")
	trackCmd.Flags().StringArrayVarP(&cmd.Properties, "property", "p", nil, "A key=value property, repeatable")
	_ = trackCmd.MarkFlagRequired("event")
	return trackCmd
}

// Run runs the command logic
func (cmd *TrackCmd) Run() error {
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
	if _, err := client.Track(analytics.Track{
		UserID:      user,
		AnonymousID: anonymous,
		Event:       cmd.Event,
		Properties:  properties,
	}); err != nil {
		return err
	}
	return finish(client)
}
