package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go/internal/devplane"
	"github.com/rudderlabs/analytics-go/internal/devplane/store"
)

// DevPlaneCmd holds the devplane cmd flags
type DevPlaneCmd struct {
	*GlobalFlags

	Addr      string
	DSN       string
	WriteKeys string
}

// NewDevPlaneCmd creates a new devplane command
func NewDevPlaneCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &DevPlaneCmd{GlobalFlags: globalFlags}
	devPlaneCmd := &cobra.Command{
		Use:   "devplane",
		Short: "Runs a local data plane for development",
		Long: `Runs an HTTP server that accepts /v1/batch uploads, stores every event,
and answers metrics and inspection queries. Point the SDK at it with
--data-plane-url http://localhost:8080 --ssl=false.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return cmd.Run(cobraCmd.Context())
		},
	}
	devPlaneCmd.Flags().StringVar(&cmd.Addr, "addr", "", "The address to listen on. Defaults to $DEVPLANE_ADDR or :8080")
	devPlaneCmd.Flags().StringVar(&cmd.DSN, "dsn", "", "The storage backend: a postgres:// URL or a SQLite file path. Defaults to $DEVPLANE_DSN or devplane.db")
	devPlaneCmd.Flags().StringVar(&cmd.WriteKeys, "write-keys", "", `Accepted write keys as "source:key,source:key". Defaults to $DEVPLANE_WRITE_KEYS`)
	return devPlaneCmd
}

// Run runs the command logic
func (cmd *DevPlaneCmd) Run(ctx context.Context) error {
	cfg, err := devplane.Load()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	if cmd.DSN != "" {
		cfg.DSN = cmd.DSN
	}
	if cmd.WriteKeys != "" {
		cfg.WriteKeysRaw = cmd.WriteKeys
	}
	if len(cfg.WriteKeys()) == 0 {
		return errors.New("at least one write key is required")
	}

	logger := cmd.newLogger()

	st, err := store.Open(cfg.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	return devplane.Run(ctx, cfg, st, logger)
}
