package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
)

// VersionCmd holds the version cmd flags
type VersionCmd struct{}

// NewVersionCmd creates a new version command
func NewVersionCmd() *cobra.Command {
	cmd := &VersionCmd{}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}
	return versionCmd
}

// Run runs the command logic
func (cmd *VersionCmd) Run(_ *cobra.Command, _ []string) error {
	fmt.Println("rudder-analytics " + analytics.Version)
	return nil
}
