package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

// BatchPath is the data-plane endpoint every batch is posted to.
const BatchPath = "/v1/batch"

const initialRetryDelay = 100 * time.Millisecond

// BatchURL builds the full upload URL from a resolved endpoint.
func BatchURL(protocol, dataPlane string) string {
	return protocol + "://" + strings.TrimSuffix(dataPlane, "/") + BatchPath
}

// Sender posts message batches to the data plane. Failed uploads are retried
// with a doubling delay until the next delay would exceed MaxRetryBackoff;
// 4xx responses other than 429 are terminal.
type Sender struct {
	URL             string
	WriteKey        string
	Compress        bool
	MaxRetryBackoff time.Duration

	HTTPClient *http.Client
	Logger     logrus.FieldLogger

	// Now is a clock hook for tests.
	Now func() time.Time
}

// statusError reports a non-2xx data plane response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("data plane returned status %d", e.status)
	}
	return fmt.Sprintf("data plane returned status %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	// Network-level failures are worth retrying.
	return true
}

// Send uploads one batch, blocking through retries. It returns nil once the
// data plane acknowledged the batch with a 2xx status.
func (s *Sender) Send(ctx context.Context, msgs []wire.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	body, err := json.Marshal(wire.Batch{
		Batch:  msgs,
		SentAt: now().UTC().Format(wire.TimeFormat),
	})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	delay := initialRetryDelay
	for {
		err = s.post(ctx, body)
		if err == nil {
			return nil
		}
		if !retryable(err) || delay > s.MaxRetryBackoff {
			return err
		}
		if s.Logger != nil {
			s.Logger.WithError(err).Warnf("batch upload failed, retrying in %s", delay)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	payload := body
	encoding := ""
	if s.Compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return fmt.Errorf("compress batch: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress batch: %w", err)
		}
		payload = buf.Bytes()
		encoding = "gzip"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	req.SetBasicAuth(s.WriteKey, "")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// Keep a short excerpt of the body for diagnostics.
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(excerpt))}
}
