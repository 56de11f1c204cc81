// Package analytics is a RudderStack client: applications describe events
// with the Track, Identify, Group, Page, Screen and Alias variants, and a
// Client validates each one and hands it to a delivery client for upload to
// the data plane.
//
// Construct a Client per process with NewWithConfig and pass it where it is
// needed, or use Init plus Default for a single ambient instance.
package analytics

// DeliveryClient buffers validated events and moves them to the data plane.
// Each method reports whether the event was accepted for delivery, not
// whether it has reached the data plane; Flush blocks until everything
// buffered was sent or a terminal failure occurred.
type DeliveryClient interface {
	Track(Track) bool
	Identify(Identify) bool
	Group(Group) bool
	Page(Page) bool
	Screen(Screen) bool
	Alias(Alias) bool
	Flush() bool
	Close() error
}

// Client validates events and forwards them to a DeliveryClient. The
// delivery result passes through unmodified: false means the event was not
// accepted, and the error reports why validation rejected the call.
type Client struct {
	deliverer DeliveryClient
}

// New builds a Client around an existing delivery client. Most callers want
// NewWithConfig instead.
func New(dc DeliveryClient) *Client {
	return &Client{deliverer: dc}
}

// NewWithConfig resolves the endpoint described by cfg and builds a Client
// around the delivery client it selects.
func NewWithConfig(writeKey string, cfg Config) (*Client, error) {
	ep, err := ResolveEndpoint(writeKey, cfg)
	if err != nil {
		return nil, err
	}
	dc, err := newDeliveryClient(ep, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{deliverer: dc}, nil
}

// ready is nil-receiver safe so the ambient handle can dispatch through a
// client that does not exist yet.
func (c *Client) ready() error {
	if c == nil || c.deliverer == nil {
		return ErrNotInitialized
	}
	return nil
}

func requireIdentity(op, userID, anonymousID string) error {
	if userID == "" && anonymousID == "" {
		return &ValidationError{
			Op:      op,
			Field:   "userId",
			Message: op + "() requires a userId or an anonymousId",
		}
	}
	return nil
}

// Track validates and forwards a Track event. The variant check runs before
// the identity check, so a call missing both reports the missing event name.
func (c *Client) Track(ev Track) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if ev.Event == "" {
		return false, &ValidationError{Op: "track", Field: "event", Message: "track() expects an event"}
	}
	if err := requireIdentity("track", ev.UserID, ev.AnonymousID); err != nil {
		return false, err
	}
	return c.deliverer.Track(ev), nil
}

// Identify validates and forwards an Identify event.
func (c *Client) Identify(ev Identify) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if err := requireIdentity("identify", ev.UserID, ev.AnonymousID); err != nil {
		return false, err
	}
	return c.deliverer.Identify(ev), nil
}

// Group validates and forwards a Group event.
func (c *Client) Group(ev Group) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if ev.GroupID == "" {
		return false, &ValidationError{Op: "group", Field: "groupId", Message: "group() expects a groupId"}
	}
	if err := requireIdentity("group", ev.UserID, ev.AnonymousID); err != nil {
		return false, err
	}
	return c.deliverer.Group(ev), nil
}

// Page validates and forwards a Page event.
func (c *Client) Page(ev Page) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if err := requireIdentity("page", ev.UserID, ev.AnonymousID); err != nil {
		return false, err
	}
	return c.deliverer.Page(ev), nil
}

// Screen validates and forwards a Screen event.
func (c *Client) Screen(ev Screen) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if err := requireIdentity("screen", ev.UserID, ev.AnonymousID); err != nil {
		return false, err
	}
	return c.deliverer.Screen(ev), nil
}

// Alias validates and forwards an Alias event. Both identifiers are
// required; there is no anonymousId fallback for this variant.
func (c *Client) Alias(ev Alias) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if ev.UserID == "" || ev.PreviousID == "" {
		field := "userId"
		if ev.UserID != "" {
			field = "previousId"
		}
		return false, &ValidationError{
			Op:      "alias",
			Field:   field,
			Message: "alias() requires both userId and previousId",
		}
	}
	return c.deliverer.Alias(ev), nil
}

// Flush blocks until the delivery client has drained its buffer and reports
// whether every batch was delivered.
func (c *Client) Flush() (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.deliverer.Flush(), nil
}

// Close shuts the delivery client down, draining whatever is buffered.
func (c *Client) Close() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.deliverer.Close()
}
