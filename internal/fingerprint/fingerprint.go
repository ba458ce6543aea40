// Package fingerprint derives a stable pseudo-identity for a browser from
// request metadata. Two clients behind the same address with the same user
// agent share a fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// None is returned alongside domain.ErrNoIdentity.
const None = ""

// Compute returns the lowercase hex SHA-256 of userAgent followed by address.
func Compute(userAgent, address string) (string, error) {
	if userAgent == "" || address == "" {
		return None, domain.ErrNoIdentity
	}
	sum := sha256.Sum256([]byte(userAgent + address))
	return hex.EncodeToString(sum[:]), nil
}
