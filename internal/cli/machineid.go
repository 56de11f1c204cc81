package cli

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/sirupsen/logrus"
)

// hashingKey blinds the raw machine id before it leaves the host. It must
// not change between releases or anonymous identities would rotate.
const hashingKey = "mQ4vT8zKpN2cWy6Bh1Jd"

// machineUID hashes the machine id together with the home directory so
// two users on one host stay distinct. Errors degrade to fixed inputs
// rather than failing; tracking must not break on exotic platforms.
func machineUID(logger logrus.FieldLogger) string {
	id, err := machineid.ID()
	if err != nil {
		id = "error"
		logger.WithError(err).Debug("failed to read machine id")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "error"
		logger.WithError(err).Debug("failed to resolve home directory")
	}
	mac := hmac.New(sha256.New, []byte(id))
	mac.Write([]byte(hashingKey))
	mac.Write([]byte(home))
	return fmt.Sprintf("%x", mac.Sum(nil))
}
