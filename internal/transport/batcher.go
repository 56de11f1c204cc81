// Package transport implements the buffered batch uploader that moves
// messages from the in-process queue to the data plane.
package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

// Options tune the buffering behavior of a Client.
type Options struct {
	// BatchSize is the number of buffered messages that triggers an upload.
	BatchSize int
	// MaxQueueSize bounds the in-memory queue; Enqueue reports false beyond it.
	MaxQueueSize int
	// FlushInterval uploads whatever is buffered even when the batch is short.
	FlushInterval time.Duration

	Logger logrus.FieldLogger
}

// Client buffers messages and uploads them in batches. Enqueue never blocks:
// when the queue is full the message is counted as dropped and false is
// returned so the caller can surface the failure.
type Client struct {
	sender *Sender
	opts   Options

	events  chan wire.Message
	flushCh chan chan bool

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	dropped atomic.Int64
}

// NewClient starts the upload loop. Close must be called to drain the queue.
func NewClient(sender *Sender, opts Options) *Client {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 10000
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	c := &Client{
		sender:  sender,
		opts:    opts,
		events:  make(chan wire.Message, opts.MaxQueueSize),
		flushCh: make(chan chan bool),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enqueue queues one message for upload.
func (c *Client) Enqueue(msg wire.Message) bool {
	select {
	case <-c.stopCh:
		return false
	default:
	}
	select {
	case c.events <- msg:
		return true
	default:
		c.dropped.Add(1)
		c.opts.Logger.Warn("message queue full, dropping message")
		return false
	}
}

// Flush uploads everything buffered so far and reports whether every batch
// was delivered.
func (c *Client) Flush() bool {
	select {
	case <-c.stopCh:
		return false
	default:
	}
	reply := make(chan bool, 1)
	select {
	case c.flushCh <- reply:
		return <-reply
	case <-c.stopCh:
		return false
	}
}

// Dropped returns how many messages were discarded because the queue was full.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops the loop after draining the queue.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.done
	return nil
}

func (c *Client) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()

	var buf []wire.Message
	for {
		select {
		case msg := <-c.events:
			buf = append(buf, msg)
			if len(buf) >= c.opts.BatchSize {
				c.upload(buf)
				buf = nil
			}
		case <-ticker.C:
			if len(buf) > 0 {
				c.upload(buf)
				buf = nil
			}
		case reply := <-c.flushCh:
			buf = c.drain(buf)
			ok := true
			for len(buf) > 0 {
				n := len(buf)
				if n > c.opts.BatchSize {
					n = c.opts.BatchSize
				}
				if !c.upload(buf[:n]) {
					ok = false
				}
				buf = buf[n:]
			}
			buf = nil
			reply <- ok
		case <-c.stopCh:
			buf = c.drain(buf)
			for len(buf) > 0 {
				n := len(buf)
				if n > c.opts.BatchSize {
					n = c.opts.BatchSize
				}
				c.upload(buf[:n])
				buf = buf[n:]
			}
			return
		}
	}
}

// drain pulls everything already queued without blocking.
func (c *Client) drain(buf []wire.Message) []wire.Message {
	for {
		select {
		case msg := <-c.events:
			buf = append(buf, msg)
		default:
			return buf
		}
	}
}

func (c *Client) upload(batch []wire.Message) bool {
	err := c.sender.Send(context.Background(), batch)
	if err != nil {
		c.opts.Logger.WithError(err).Errorf("failed to upload batch of %d messages", len(batch))
		return false
	}
	return true
}
