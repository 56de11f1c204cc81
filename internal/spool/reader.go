package spool

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

const readChunkSize = 64 * 1024

// Reader walks a spool file from the beginning, returning messages in the
// order they were appended. It tolerates a writer appending concurrently: a
// trailing line that has no newline yet is left for a later call instead of
// being half-parsed.
type Reader struct {
	f      *os.File
	offset int64
	buf    []byte
	logger logrus.FieldLogger
}

// OpenReader opens the spool file for reading.
func OpenReader(path string, logger logrus.FieldLogger) (*Reader, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open spool file")
	}
	return &Reader{f: f, logger: logger}, nil
}

// Next returns up to max messages appended since the previous call. An empty
// slice means the reader has caught up with the file.
func (r *Reader) Next(max int) ([]wire.Message, error) {
	if max <= 0 {
		max = 100
	}
	var msgs []wire.Message
	for len(msgs) < max {
		line, ok := r.takeLine()
		if !ok {
			n, err := r.fill()
			if err != nil {
				return msgs, err
			}
			if n == 0 {
				return msgs, nil
			}
			continue
		}
		if len(line) == 0 {
			continue
		}
		var m wire.Message
		if err := json.Unmarshal(line, &m); err != nil {
			r.logger.WithError(err).Warn("skipping corrupt spool line")
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

func (r *Reader) takeLine() ([]byte, bool) {
	i := bytes.IndexByte(r.buf, '\n')
	if i < 0 {
		return nil, false
	}
	line := bytes.TrimRight(r.buf[:i], "\r")
	r.buf = r.buf[i+1:]
	return line, true
}

func (r *Reader) fill() (int, error) {
	chunk := make([]byte, readChunkSize)
	n, err := r.f.ReadAt(chunk, r.offset)
	if n > 0 {
		r.offset += int64(n)
		r.buf = append(r.buf, chunk[:n]...)
	}
	if err != nil && err != io.EOF {
		return n, errors.Wrap(err, "read spool file")
	}
	return n, nil
}
