package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go"
)

// newLogger builds the CLI logger. Logs go to stderr so stdout stays
// scriptable.
func (g *GlobalFlags) newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if g.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// envDefault falls back to an environment variable when the flag was not
// set.
func envDefault(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// clientConfig translates flags into the SDK configuration. --ssl only
// takes effect when set explicitly, so bare hosts keep their default
// scheme handling.
func (g *GlobalFlags) clientConfig(logger *logrus.Logger) analytics.Config {
	cfg := analytics.Config{
		DataPlaneURL: envDefault(g.DataPlaneURL, "RUDDER_DATA_PLANE_URL"),
		Consumer:     analytics.Consumer(g.Consumer),
		SpoolPath:    g.SpoolPath,
	}
	if logger != nil {
		cfg.Logger = logger
	}
	if g.flags.Changed("ssl") {
		cfg.SSL = analytics.Bool(g.SSL)
	}
	return cfg
}

// Client builds the SDK client from flags and environment.
func (g *GlobalFlags) Client() (*analytics.Client, *logrus.Logger, error) {
	logger := g.newLogger()
	client, err := analytics.NewWithConfig(envDefault(g.WriteKey, "RUDDER_WRITE_KEY"), g.clientConfig(logger))
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

// endpoint resolves the delivery target without constructing a client.
func (g *GlobalFlags) endpoint() (analytics.Endpoint, error) {
	return analytics.ResolveEndpoint(envDefault(g.WriteKey, "RUDDER_WRITE_KEY"), g.clientConfig(nil))
}

// identity falls back to a stable machine-derived anonymous id so events
// from scripts stay attributable without requiring --user.
func identity(user, anonymous string, logger logrus.FieldLogger) (string, string) {
	if user != "" || anonymous != "" {
		return user, anonymous
	}
	return "", machineUID(logger)
}

// parseKV turns repeated key=value flags into a map. Values that parse as
// JSON keep their type, anything else stays a string.
func parseKV(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		out[key] = v
	}
	return out, nil
}

// finish flushes buffered events and surfaces delivery failures in the
// exit code.
func finish(client *analytics.Client) error {
	ok, err := client.Flush()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("delivery failed")
	}
	return nil
}
