package page

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Fingerprint computes a SHA-256 hash of a fetched document, used to tell in
// logs whether the page content moved between cycles.
func Fingerprint(body []byte) (string, error) {
	if len(body) == 0 {
		return "", errors.New("document body is empty")
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
