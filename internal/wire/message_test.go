package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testLib = Library{Name: "analytics-go", Version: "0.0.0-test"}

func TestStamp_FillsEnvelopeDefaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 250e6, time.UTC)

	m := Message{Type: "track", Event: "Signed Up", UserID: "u1"}
	m.Stamp(testLib, now)

	if m.MessageID == "" {
		t.Fatal("expected a generated messageId")
	}
	if m.OriginalTimestamp != "2024-05-01T12:30:00.250Z" {
		t.Fatalf("originalTimestamp = %q", m.OriginalTimestamp)
	}
	if m.Channel != "server" {
		t.Fatalf("channel = %q", m.Channel)
	}
	lib, ok := m.Context["library"].(Library)
	if !ok || lib != testLib {
		t.Fatalf("context.library = %#v", m.Context["library"])
	}
}

func TestStamp_KeepsCallerValues(t *testing.T) {
	m := Message{
		Type:              "track",
		MessageID:         "caller-id",
		OriginalTimestamp: "2020-01-01T00:00:00.000Z",
		Channel:           "mobile",
		Context: map[string]interface{}{
			"library": map[string]interface{}{"name": "custom"},
			"ip":      "10.0.0.1",
		},
	}
	m.Stamp(testLib, time.Now())

	if m.MessageID != "caller-id" {
		t.Errorf("messageId overwritten: %q", m.MessageID)
	}
	if m.OriginalTimestamp != "2020-01-01T00:00:00.000Z" {
		t.Errorf("originalTimestamp overwritten: %q", m.OriginalTimestamp)
	}
	if m.Channel != "mobile" {
		t.Errorf("channel overwritten: %q", m.Channel)
	}
	want := map[string]interface{}{
		"library": map[string]interface{}{"name": "custom"},
		"ip":      "10.0.0.1",
	}
	if diff := cmp.Diff(want, m.Context); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestStamp_DoesNotMutateCallerContext(t *testing.T) {
	callerCtx := map[string]interface{}{"ip": "10.0.0.1"}

	m := Message{Type: "page", AnonymousID: "a1", Context: callerCtx}
	m.Stamp(testLib, time.Now())

	if _, ok := callerCtx["library"]; ok {
		t.Fatal("caller context map was mutated")
	}
	if _, ok := m.Context["library"]; !ok {
		t.Fatal("stamped context is missing library")
	}
}

func TestBatch_JSONShape(t *testing.T) {
	b := Batch{
		Batch: []Message{{
			Type:      "identify",
			MessageID: "m1",
			UserID:    "u1",
			Traits:    map[string]interface{}{"plan": "pro"},
		}},
		SentAt: "2024-05-01T12:30:00.000Z",
	}

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	msgs, ok := decoded["batch"].([]interface{})
	if !ok || len(msgs) != 1 {
		t.Fatalf("batch field = %#v", decoded["batch"])
	}
	first := msgs[0].(map[string]interface{})
	if first["type"] != "identify" || first["userId"] != "u1" {
		t.Fatalf("message fields = %#v", first)
	}
	if _, present := first["event"]; present {
		t.Error("empty event field should be omitted")
	}
	if decoded["sentAt"] != "2024-05-01T12:30:00.000Z" {
		t.Errorf("sentAt = %v", decoded["sentAt"])
	}
}
