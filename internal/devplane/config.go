package devplane

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is read from DEVPLANE_* environment variables.
type Config struct {
	Addr string `env:"DEVPLANE_ADDR" envDefault:":8080"`

	// DSN selects the storage backend: postgres:// URLs use a pgx pool,
	// anything else is a SQLite file path.
	DSN string `env:"DEVPLANE_DSN" envDefault:"devplane.db"`

	// WriteKeysRaw maps accepted write keys to source names, in
	// "source:key,source:key" form.
	WriteKeysRaw string `env:"DEVPLANE_WRITE_KEYS" envDefault:"dev:dev-write-key"`

	// OTLPEndpoint enables tracing when set, e.g.
	// "http://localhost:4318".
	OTLPEndpoint string `env:"DEVPLANE_OTLP_ENDPOINT"`
}

// Load parses the environment and validates the write-key mapping.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := parseWriteKeys(cfg.WriteKeysRaw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteKeys returns the write key to source mapping. Invalid input yields
// an empty map; Load validates ahead of time.
func (c Config) WriteKeys() map[string]string {
	keys, err := parseWriteKeys(c.WriteKeysRaw)
	if err != nil {
		return map[string]string{}
	}
	return keys
}

func parseWriteKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf(`write keys must be "source:key,source:key", got %q`, pair)
		}
		source := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if source == "" || key == "" {
			return nil, fmt.Errorf(`write keys must be "source:key,source:key", got %q`, pair)
		}
		keys[key] = source
	}
	if len(keys) == 0 {
		return nil, errors.New("at least one write key is required")
	}
	return keys, nil
}
