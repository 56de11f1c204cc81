// Package spool persists messages as JSON lines so a separate process can
// upload them later. The writer only ever appends; readers track their own
// offset, which keeps one-shot sends from short-lived processes cheap.
package spool

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

// Writer appends messages to a spool file, one JSON document per line.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	logger logrus.FieldLogger
}

// NewWriter opens the spool file for appending, creating parent directories
// as needed.
func NewWriter(path string, logger logrus.FieldLogger) (*Writer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create spool directory")
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open spool file")
	}
	return &Writer{f: f, logger: logger}, nil
}

// Enqueue appends one message and reports whether the write succeeded.
func (w *Writer) Enqueue(msg wire.Message) bool {
	line, err := json.Marshal(msg)
	if err != nil {
		w.logger.WithError(err).Error("failed to encode spooled message")
		return false
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return false
	}
	if _, err := w.f.Write(line); err != nil {
		w.logger.WithError(err).Error("failed to append to spool file")
		return false
	}
	return true
}

// Flush forces buffered data to disk.
func (w *Writer) Flush() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return false
	}
	if err := w.f.Sync(); err != nil {
		w.logger.WithError(err).Error("failed to sync spool file")
		return false
	}
	return true
}

// Close syncs and closes the spool file. Further Enqueue calls report false.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.f = nil
	return err
}
