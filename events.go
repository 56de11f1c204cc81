package analytics

import "time"

// Event variants form a closed set: one struct per message type the data
// plane accepts, each carrying the identity pair plus its own required
// fields. MessageID and Timestamp are optional overrides; when left zero the
// delivery client stamps them.

// Track records something a user did.
type Track struct {
	UserID      string
	AnonymousID string

	// Event names the action and is required.
	Event string

	Properties   map[string]interface{}
	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}

// Identify ties traits to a user.
type Identify struct {
	UserID      string
	AnonymousID string

	Traits       map[string]interface{}
	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}

// Group associates a user with an organization or account.
type Group struct {
	UserID      string
	AnonymousID string

	// GroupID names the group and is required.
	GroupID string

	Traits       map[string]interface{}
	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}

// Page records a web page view.
type Page struct {
	UserID      string
	AnonymousID string

	Name string

	Properties   map[string]interface{}
	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}

// Screen records a mobile screen view.
type Screen struct {
	UserID      string
	AnonymousID string

	Name string

	Properties   map[string]interface{}
	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}

// Alias merges two user identities. Unlike the other variants it requires
// both identifiers and accepts no anonymousId fallback.
type Alias struct {
	UserID     string
	PreviousID string

	Context      map[string]interface{}
	Integrations map[string]interface{}

	MessageID string
	Timestamp time.Time
}
