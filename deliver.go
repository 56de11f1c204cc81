package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/spool"
	"github.com/rudderlabs/analytics-go/internal/transport"
	"github.com/rudderlabs/analytics-go/internal/wire"
)

// Consumer selects how validated events leave the process.
type Consumer string

const (
	// ConsumerBatch buffers events in memory and uploads them in batches
	// from a background goroutine.
	ConsumerBatch Consumer = "batch"
	// ConsumerSpool appends events to a local file; a later
	// "rudder-analytics upload" run moves them to the data plane.
	ConsumerSpool Consumer = "spool"
)

// DefaultSpoolPath is where ConsumerSpool writes when Config.SpoolPath is
// empty.
var DefaultSpoolPath = filepath.Join(os.TempDir(), "rudder-analytics.jsonl")

const defaultMaxRetryBackoff = 10 * time.Second

// wireSink is the transport-facing half of a delivery client. Both the
// batch uploader and the file spool satisfy it.
type wireSink interface {
	Enqueue(wire.Message) bool
	Flush() bool
	Close() error
}

// newDeliveryClient builds the delivery client cfg selects, bound to the
// resolved endpoint.
func newDeliveryClient(ep Endpoint, cfg Config) (DeliveryClient, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var sink wireSink
	switch cfg.Consumer {
	case ConsumerBatch, "":
		backoff := cfg.MaxRetryBackoff
		if backoff <= 0 {
			backoff = defaultMaxRetryBackoff
		}
		sender := &transport.Sender{
			URL:             transport.BatchURL(ep.Protocol, ep.DataPlane),
			WriteKey:        ep.WriteKey,
			Compress:        cfg.Compress,
			MaxRetryBackoff: backoff,
			HTTPClient:      cfg.HTTPClient,
			Logger:          logger,
		}
		sink = transport.NewClient(sender, transport.Options{
			BatchSize:     cfg.BatchSize,
			MaxQueueSize:  cfg.MaxQueueSize,
			FlushInterval: cfg.FlushInterval,
			Logger:        logger,
		})
	case ConsumerSpool:
		path := cfg.SpoolPath
		if path == "" {
			path = DefaultSpoolPath
		}
		w, err := spool.NewWriter(path, logger)
		if err != nil {
			return nil, err
		}
		sink = w
	default:
		return nil, &ConfigError{Field: "consumer", Message: fmt.Sprintf("unknown consumer %q", cfg.Consumer)}
	}
	return &sinkClient{sink: sink}, nil
}

// sinkClient adapts a wireSink to the per-variant DeliveryClient surface,
// stamping envelope fields on the way through.
type sinkClient struct {
	sink wireSink
	now  func() time.Time
}

func (s *sinkClient) stamp(m wire.Message, ts time.Time) wire.Message {
	if ts.IsZero() {
		if s.now != nil {
			ts = s.now()
		} else {
			ts = time.Now()
		}
	}
	m.Stamp(wire.Library{Name: libraryName, Version: Version}, ts)
	return m
}

func (s *sinkClient) Track(ev Track) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "track",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		AnonymousID:  ev.AnonymousID,
		Event:        ev.Event,
		Properties:   ev.Properties,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Identify(ev Identify) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "identify",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		AnonymousID:  ev.AnonymousID,
		Traits:       ev.Traits,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Group(ev Group) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "group",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		AnonymousID:  ev.AnonymousID,
		GroupID:      ev.GroupID,
		Traits:       ev.Traits,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Page(ev Page) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "page",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		AnonymousID:  ev.AnonymousID,
		Name:         ev.Name,
		Properties:   ev.Properties,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Screen(ev Screen) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "screen",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		AnonymousID:  ev.AnonymousID,
		Name:         ev.Name,
		Properties:   ev.Properties,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Alias(ev Alias) bool {
	return s.sink.Enqueue(s.stamp(wire.Message{
		Type:         "alias",
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		PreviousID:   ev.PreviousID,
		Context:      ev.Context,
		Integrations: ev.Integrations,
	}, ev.Timestamp))
}

func (s *sinkClient) Flush() bool { return s.sink.Flush() }

func (s *sinkClient) Close() error { return s.sink.Close() }
