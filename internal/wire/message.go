// Package wire defines the JSON payloads accepted by the data plane's
// batch endpoint, plus the envelope stamping every outgoing message gets.
package wire

import (
	"time"

	"github.com/google/uuid"
)

// TimeFormat is RFC3339 with millisecond precision, the timestamp layout
// the data plane expects.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Library identifies the SDK that produced a message. It is reported under
// context.library so the data plane can attribute traffic per client.
type Library struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Message is a single event in wire format. One shape covers every variant;
// fields that do not apply to a variant stay empty and are omitted.
type Message struct {
	Type              string                 `json:"type"`
	MessageID         string                 `json:"messageId"`
	UserID            string                 `json:"userId,omitempty"`
	AnonymousID       string                 `json:"anonymousId,omitempty"`
	Event             string                 `json:"event,omitempty"`
	Name              string                 `json:"name,omitempty"`
	GroupID           string                 `json:"groupId,omitempty"`
	PreviousID        string                 `json:"previousId,omitempty"`
	Properties        map[string]interface{} `json:"properties,omitempty"`
	Traits            map[string]interface{} `json:"traits,omitempty"`
	Context           map[string]interface{} `json:"context,omitempty"`
	Integrations      map[string]interface{} `json:"integrations,omitempty"`
	OriginalTimestamp string                 `json:"originalTimestamp,omitempty"`
	Channel           string                 `json:"channel,omitempty"`
}

// Batch is the body of POST /v1/batch.
type Batch struct {
	Batch  []Message `json:"batch"`
	SentAt string    `json:"sentAt"`
}

// Stamp fills the envelope fields on a message: messageId, originalTimestamp,
// channel and context.library. Caller-supplied values win; the context map is
// copied before the library entry is added so the caller's map is never
// mutated.
func (m *Message) Stamp(lib Library, now time.Time) {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	if m.OriginalTimestamp == "" {
		m.OriginalTimestamp = now.UTC().Format(TimeFormat)
	}
	if m.Channel == "" {
		m.Channel = "server"
	}

	ctx := make(map[string]interface{}, len(m.Context)+1)
	for k, v := range m.Context {
		ctx[k] = v
	}
	if _, ok := ctx["library"]; !ok {
		ctx["library"] = lib
	}
	m.Context = ctx
}
