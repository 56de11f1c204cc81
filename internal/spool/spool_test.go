package spool

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/wire"
)

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func spoolPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "events.jsonl")
}

func TestWriterThenReaderRoundTrip(t *testing.T) {
	path := spoolPath(t)
	w, err := NewWriter(path, discardLogger())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	want := []wire.Message{
		{Type: "track", UserID: "u1", Event: "Signed Up"},
		{Type: "identify", UserID: "u1", Traits: map[string]interface{}{"plan": "pro"}},
		{Type: "alias", UserID: "u1", PreviousID: "anon-1"},
	}
	for _, m := range want {
		if !w.Enqueue(m) {
			t.Fatalf("Enqueue(%+v) returned false", m)
		}
	}
	if !w.Flush() {
		t.Fatal("Flush returned false")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path, discardLogger())
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	got, err := r.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spooled messages mismatch (-want +got):\n%s", diff)
	}

	again, err := r.Next(10)
	if err != nil {
		t.Fatalf("Next after catch-up: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Next after catch-up returned %d messages, want 0", len(again))
	}
}

func TestReaderHonorsMax(t *testing.T) {
	path := spoolPath(t)
	w, err := NewWriter(path, discardLogger())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 5; i++ {
		w.Enqueue(wire.Message{Type: "track", UserID: "u", Event: "e"})
	}
	w.Close()

	r, err := OpenReader(path, discardLogger())
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	for _, wantN := range []int{2, 2, 1, 0} {
		got, err := r.Next(2)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if len(got) != wantN {
			t.Fatalf("Next(2) returned %d messages, want %d", len(got), wantN)
		}
	}
}

func TestReaderLeavesPartialTrailingLine(t *testing.T) {
	path := spoolPath(t)
	full := `{"type":"track","userId":"u","event":"Complete"}` + "\n"
	partial := `{"type":"track","userId":"u","ev`
	if err := os.WriteFile(path, []byte(full+partial), 0o644); err != nil {
		t.Fatalf("seed spool: %v", err)
	}

	r, err := OpenReader(path, discardLogger())
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	got, err := r.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 1 || got[0].Event != "Complete" {
		t.Fatalf("Next = %+v, want only the complete line", got)
	}

	// Finish the interrupted line the way a concurrent writer would.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("reopen spool: %v", err)
	}
	if _, err := f.WriteString(`ent":"Resumed"}` + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	got, err = r.Next(10)
	if err != nil {
		t.Fatalf("Next after append: %v", err)
	}
	if len(got) != 1 || got[0].Event != "Resumed" {
		t.Fatalf("Next after append = %+v, want the resumed line", got)
	}
}

func TestReaderSkipsCorruptLines(t *testing.T) {
	path := spoolPath(t)
	content := `{"type":"track","userId":"u","event":"First"}` + "\n" +
		`{not json}` + "\n" +
		"\n" +
		`{"type":"track","userId":"u","event":"Second"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed spool: %v", err)
	}

	r, err := OpenReader(path, discardLogger())
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	got, err := r.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 2 || got[0].Event != "First" || got[1].Event != "Second" {
		t.Fatalf("Next = %+v, want the two valid lines", got)
	}
}

func TestWriterCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.jsonl")
	w, err := NewWriter(path, discardLogger())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()
	if !w.Enqueue(wire.Message{Type: "page", UserID: "u", Name: "Home"}) {
		t.Fatal("Enqueue returned false")
	}
}

func TestWriterAfterClose(t *testing.T) {
	w, err := NewWriter(spoolPath(t), discardLogger())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Enqueue(wire.Message{Type: "track", Event: "late"}) {
		t.Error("Enqueue after Close should report false")
	}
	if w.Flush() {
		t.Error("Flush after Close should report false")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
