package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rudderlabs/analytics-go"
	"github.com/rudderlabs/analytics-go/internal/spool"
	"github.com/rudderlabs/analytics-go/internal/transport"
)

// UploadCmd holds the upload cmd flags
type UploadCmd struct {
	*GlobalFlags

	BatchSize int
	Follow    bool
	Clean     bool
	Compress  bool
}

// NewUploadCmd creates a new upload command
func NewUploadCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &UploadCmd{GlobalFlags: globalFlags}
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Delivers spooled events to the data plane",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return cmd.Run(cobraCmd.Context())
		},
	}
	uploadCmd.Flags().IntVar(&cmd.BatchSize, "batch-size", 100, "How many events to upload per request")
	uploadCmd.Flags().BoolVar(&cmd.Follow, "follow", false, "Keep watching the spool for new events")
	uploadCmd.Flags().BoolVar(&cmd.Clean, "clean", false, "Remove the spool file after a successful upload. Only safe when nothing is appending")
	uploadCmd.Flags().BoolVar(&cmd.Compress, "compress", false, "Gzip upload requests")
	return uploadCmd
}

// Run runs the command logic
func (cmd *UploadCmd) Run(ctx context.Context) error {
	logger := cmd.newLogger()

	ep, err := cmd.endpoint()
	if err != nil {
		return err
	}

	path := cmd.SpoolPath
	if path == "" {
		path = analytics.DefaultSpoolPath
	}

	if cmd.Follow {
		// Following may start before the producer has written anything;
		// make sure the spool exists so the reader can open it.
		w, err := spool.NewWriter(path, logger)
		if err != nil {
			return err
		}
		_ = w.Close()
	}

	reader, err := spool.OpenReader(path, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	sender := &transport.Sender{
		URL:             transport.BatchURL(ep.Protocol, ep.DataPlane),
		WriteKey:        ep.WriteKey,
		Compress:        cmd.Compress,
		MaxRetryBackoff: 30 * time.Second,
		Logger:          logger,
	}

	if err := cmd.drain(ctx, reader, sender, logger); err != nil {
		return err
	}
	if cmd.Follow {
		return cmd.follow(ctx, path, reader, sender, logger)
	}
	if cmd.Clean {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "clean spool")
		}
	}
	return nil
}

// drain uploads everything currently in the spool, one batch per request.
func (cmd *UploadCmd) drain(ctx context.Context, reader *spool.Reader, sender *transport.Sender, logger logrus.FieldLogger) error {
	total := 0
	for {
		msgs, err := reader.Next(cmd.BatchSize)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			if total > 0 {
				logger.WithField("count", total).Info("uploaded spooled events")
			}
			return nil
		}
		if err := sender.Send(ctx, msgs); err != nil {
			return err
		}
		total += len(msgs)
	}
}

// follow keeps draining as the producer appends. The parent directory is
// watched and bursts of writes are coalesced into one upload.
func (cmd *UploadCmd) follow(ctx context.Context, path string, reader *spool.Reader, sender *transport.Sender, logger logrus.FieldLogger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watch spool")
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "watch spool")
	}
	base := filepath.Base(path)
	logger.WithField("path", path).Info("following spool")

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(200 * time.Millisecond)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(200 * time.Millisecond)
		}
		timerCh = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			schedule()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("spool watch error")
		case <-timerCh:
			timerCh = nil
			if err := cmd.drain(ctx, reader, sender, logger); err != nil {
				return err
			}
		}
	}
}
