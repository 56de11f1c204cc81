// Package cli implements the rudder-analytics command line tool: sending
// single events, uploading a spool file, and running a local dev plane.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

// GlobalFlags are shared by every subcommand that talks to a data plane.
type GlobalFlags struct {
	WriteKey     string
	DataPlaneURL string
	SSL          bool
	Consumer     string
	SpoolPath    string
	Debug        bool

	flags *flag.FlagSet
}

// SetGlobalFlags applies the global flags
func SetGlobalFlags(flags *flag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{flags: flags}

	flags.StringVar(&globalFlags.WriteKey, "write-key", "", "The source write key. Defaults to $RUDDER_WRITE_KEY")
	flags.StringVar(&globalFlags.DataPlaneURL, "data-plane-url", "", "The data plane to deliver to. Defaults to $RUDDER_DATA_PLANE_URL")
	flags.BoolVar(&globalFlags.SSL, "ssl", true, "Whether to reach the data plane over https")
	flags.StringVar(&globalFlags.Consumer, "consumer", "batch", "How events leave the process. Can be either batch or spool")
	flags.StringVar(&globalFlags.SpoolPath, "spool", "", "The spool file used by --consumer spool and by upload")
	flags.BoolVar(&globalFlags.Debug, "debug", false, "Prints debug logs")
	return globalFlags
}

// NewRootCmd returns a new root command
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "rudder-analytics",
		Short:         "Event tracking from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Keys in a local .env fill flags left unset, matching how
			// server-side SDK setups are usually configured.
			_ = godotenv.Load()
		},
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := BuildRoot()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// BuildRoot creates a new root command with every subcommand attached.
func BuildRoot() *cobra.Command {
	rootCmd := NewRootCmd()
	persistentFlags := rootCmd.PersistentFlags()
	globalFlags := SetGlobalFlags(persistentFlags)

	rootCmd.AddCommand(NewTrackCmd(globalFlags))
	rootCmd.AddCommand(NewIdentifyCmd(globalFlags))
	rootCmd.AddCommand(NewGroupCmd(globalFlags))
	rootCmd.AddCommand(NewPageCmd(globalFlags))
	rootCmd.AddCommand(NewScreenCmd(globalFlags))
	rootCmd.AddCommand(NewAliasCmd(globalFlags))
	rootCmd.AddCommand(NewUploadCmd(globalFlags))
	rootCmd.AddCommand(NewDevPlaneCmd(globalFlags))
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}
