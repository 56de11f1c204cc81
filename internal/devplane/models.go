package devplane

import "encoding/json"

// batchRequest is the POST /v1/batch payload, the SDK's upload format.
type batchRequest struct {
	Batch  []json.RawMessage `json:"batch"`
	SentAt string            `json:"sentAt"`
}

// batchMessage is the subset of each message the dev plane indexes; the
// full document is stored untouched.
type batchMessage struct {
	Type        string `json:"type"`
	MessageID   string `json:"messageId"`
	UserID      string `json:"userId"`
	AnonymousID string `json:"anonymousId"`
	Event       string `json:"event"`
	Name        string `json:"name"`
}

// batchResponse reports how many messages were newly stored versus already
// seen. Duplicates are idempotent successes, not errors.
type batchResponse struct {
	Received   int `json:"received"`
	Duplicates int `json:"duplicates"`
}

// eventView is one item in the GET /v1/events response.
type eventView struct {
	MessageID   string          `json:"messageId"`
	Type        string          `json:"type"`
	UserID      string          `json:"userId,omitempty"`
	AnonymousID string          `json:"anonymousId,omitempty"`
	Name        string          `json:"name,omitempty"`
	ReceivedAt  string          `json:"receivedAt"`
	Message     json.RawMessage `json:"message"`
}
