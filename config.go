package analytics

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries everything a client needs beyond the write key. Only
// DataPlaneURL is required; every other field has a working default.
type Config struct {
	// DataPlaneURL locates the ingestion endpoint. A bare host such as
	// "hosted.rudderlabs.com" is assumed secure; an explicit http:// or
	// https:// prefix must agree with SSL.
	DataPlaneURL string

	// SSL forces the transport scheme: true means https, false means
	// http. Leaving it nil defaults to https. Use Bool to set it.
	SSL *bool

	// Consumer selects how validated events leave the process. The
	// default is ConsumerBatch.
	Consumer Consumer

	// BatchSize is the number of buffered messages that triggers an
	// upload; MaxQueueSize bounds the in-memory queue. Both apply to
	// ConsumerBatch only.
	BatchSize    int
	MaxQueueSize int

	// FlushInterval uploads short batches that have been sitting too
	// long. MaxRetryBackoff caps the doubling delay between upload
	// retries.
	FlushInterval   time.Duration
	MaxRetryBackoff time.Duration

	// Compress gzips batch uploads.
	Compress bool

	// SpoolPath is the file ConsumerSpool appends to. Defaults to
	// DefaultSpoolPath.
	SpoolPath string

	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Bool is a helper for the Config.SSL field.
func Bool(b bool) *bool { return &b }

// Endpoint is a validated data plane target: a scheme-free host (possibly
// carrying a path) plus the protocol to reach it with.
type Endpoint struct {
	WriteKey  string
	DataPlane string
	Protocol  string
}

var schemePrefix = regexp.MustCompile(`^(?i:https?)://`)

// ResolveEndpoint normalizes and validates the data plane target described
// by cfg. A URL without a scheme is assumed secure by default, so it can
// never conflict with the SSL option; only a caller-supplied scheme can.
func ResolveEndpoint(writeKey string, cfg Config) (Endpoint, error) {
	if writeKey == "" {
		return Endpoint{}, &ConfigError{Field: "writeKey", Message: "init() requires a write key"}
	}
	raw := cfg.DataPlaneURL
	if raw == "" {
		return Endpoint{}, &ConfigError{Field: "dataPlaneURL", Message: "init() requires a data plane URL"}
	}

	explicit := schemePrefix.MatchString(raw)
	candidate := raw
	if !explicit {
		candidate = "https://" + raw
	}
	if !wellFormed(candidate) {
		return Endpoint{}, &ConfigError{Field: "dataPlaneURL", Message: "data plane URL input is invalid"}
	}

	required := "https"
	if cfg.SSL != nil && !*cfg.SSL {
		required = "http"
	}

	rest := candidate[strings.Index(candidate, "://")+3:]
	if explicit {
		scheme := strings.ToLower(candidate[:strings.Index(candidate, "://")])
		if scheme != required {
			return Endpoint{}, &ConfigError{
				Field:   "sslEnabled",
				Message: "data plane URL and SSL options are incompatible with each other",
			}
		}
	}

	return Endpoint{WriteKey: writeKey, DataPlane: rest, Protocol: required}, nil
}

// wellFormed rejects strings that net/url parses but no data plane could
// serve, like nested schemes or an empty host.
func wellFormed(candidate string) bool {
	rest := schemePrefix.ReplaceAllString(candidate, "")
	if rest == "" || strings.HasPrefix(rest, "/") || strings.Contains(rest, "://") {
		return false
	}
	u, err := url.Parse(candidate)
	return err == nil && u.Host != ""
}
