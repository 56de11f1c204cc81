package transport

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBatchURL(t *testing.T) {
	cases := []struct {
		protocol  string
		dataPlane string
		want      string
	}{
		{"https", "hosted.rudderlabs.com", "https://hosted.rudderlabs.com/v1/batch"},
		{"http", "localhost:8080/", "http://localhost:8080/v1/batch"},
	}
	for _, tc := range cases {
		if got := BatchURL(tc.protocol, tc.dataPlane); got != tc.want {
			t.Errorf("BatchURL(%q, %q) = %q, want %q", tc.protocol, tc.dataPlane, got, tc.want)
		}
	}
}

func TestSenderPostsBatch(t *testing.T) {
	var (
		gotUser        string
		gotContentType string
		gotBatch       wire.Batch
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _, _ = r.BasicAuth()
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBatch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sent := time.Date(2024, 5, 1, 12, 30, 0, 250e6, time.UTC)
	s := &Sender{
		URL:             srv.URL,
		WriteKey:        "write-key",
		MaxRetryBackoff: time.Millisecond,
		Logger:          discardLogger(),
		Now:             func() time.Time { return sent },
	}
	msgs := []wire.Message{{Type: "track", UserID: "user-1", Event: "Plan Upgraded"}}
	if err := s.Send(context.Background(), msgs); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotUser != "write-key" {
		t.Errorf("basic auth user = %q, want the write key", gotUser)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBatch.SentAt != "2024-05-01T12:30:00.250Z" {
		t.Errorf("sentAt = %q", gotBatch.SentAt)
	}
	if diff := cmp.Diff(msgs, gotBatch.Batch); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestSenderCompressesWhenEnabled(t *testing.T) {
	var gotBatch wire.Batch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if enc := r.Header.Get("Content-Encoding"); enc != "gzip" {
			t.Errorf("Content-Encoding = %q, want gzip", enc)
		}
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			t.Errorf("gzip reader: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(zr).Decode(&gotBatch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &Sender{
		URL:             srv.URL,
		WriteKey:        "write-key",
		Compress:        true,
		MaxRetryBackoff: time.Millisecond,
		Logger:          discardLogger(),
	}
	if err := s.Send(context.Background(), []wire.Message{{Type: "screen", Name: "Home"}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gotBatch.Batch) != 1 || gotBatch.Batch[0].Name != "Home" {
		t.Errorf("unexpected batch: %+v", gotBatch)
	}
}

func TestSenderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	s := &Sender{
		URL:             srv.URL,
		WriteKey:        "write-key",
		MaxRetryBackoff: time.Second,
		Logger:          discardLogger(),
	}
	if err := s.Send(context.Background(), []wire.Message{{Type: "track", Event: "e"}}); err != nil {
		t.Fatalf("Send after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid write key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &Sender{
		URL:             srv.URL,
		WriteKey:        "bad-key",
		MaxRetryBackoff: time.Second,
		Logger:          discardLogger(),
	}
	err := s.Send(context.Background(), []wire.Message{{Type: "track", Event: "e"}})
	if err == nil {
		t.Fatal("Send should fail on 401")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestSenderSkipsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	if err := s.Send(context.Background(), nil); err != nil {
		t.Fatalf("Send(nil): %v", err)
	}
}

func TestClientFlushDeliversBuffered(t *testing.T) {
	var mu sync.Mutex
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b wire.Batch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		mu.Lock()
		for _, m := range b.Batch {
			got = append(got, m.Event)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	c := NewClient(s, Options{BatchSize: 100, MaxQueueSize: 100, FlushInterval: time.Hour, Logger: discardLogger()})
	defer c.Close()

	want := []string{"Signed Up", "Plan Upgraded", "Signed Out"}
	for _, name := range want {
		if !c.Enqueue(wire.Message{Type: "track", UserID: "u", Event: name}) {
			t.Fatalf("Enqueue(%q) returned false", name)
		}
	}
	if !c.Flush() {
		t.Fatal("Flush returned false")
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("delivered events mismatch (-want +got):\n%s", diff)
	}
}

func TestClientUploadsAtBatchSize(t *testing.T) {
	sizes := make(chan int, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b wire.Batch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		sizes <- len(b.Batch)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	c := NewClient(s, Options{BatchSize: 3, MaxQueueSize: 100, FlushInterval: time.Hour, Logger: discardLogger()})
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Enqueue(wire.Message{Type: "track", UserID: "u", Event: "e"})
	}
	select {
	case n := <-sizes:
		if n != 3 {
			t.Errorf("batch size = %d, want 3", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the threshold upload")
	}
}

func TestClientDropsWhenQueueFull(t *testing.T) {
	entered := make(chan struct{}, 10)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	c := NewClient(s, Options{BatchSize: 1, MaxQueueSize: 2, FlushInterval: time.Hour, Logger: discardLogger()})

	if !c.Enqueue(wire.Message{Type: "track", Event: "first"}) {
		t.Fatal("first Enqueue returned false")
	}
	// The loop is now blocked uploading the first message, so the queue
	// fills deterministically.
	<-entered

	for i := 0; i < 2; i++ {
		if !c.Enqueue(wire.Message{Type: "track", Event: "queued"}) {
			t.Fatalf("Enqueue %d should fit in the queue", i)
		}
	}
	if c.Enqueue(wire.Message{Type: "track", Event: "overflow"}) {
		t.Fatal("Enqueue should report false once the queue is full")
	}
	if got := c.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	close(release)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClientFlushReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	c := NewClient(s, Options{BatchSize: 10, MaxQueueSize: 10, FlushInterval: time.Hour, Logger: discardLogger()})
	defer c.Close()

	c.Enqueue(wire.Message{Type: "track", UserID: "u", Event: "e"})
	if c.Flush() {
		t.Fatal("Flush should report false when the upload fails")
	}
}

func TestClientEnqueueAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &Sender{URL: srv.URL, WriteKey: "write-key", MaxRetryBackoff: time.Millisecond, Logger: discardLogger()}
	c := NewClient(s, Options{Logger: discardLogger()})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.Enqueue(wire.Message{Type: "track", Event: "late"}) {
		t.Error("Enqueue after Close should report false")
	}
	if c.Flush() {
		t.Error("Flush after Close should report false")
	}
}
