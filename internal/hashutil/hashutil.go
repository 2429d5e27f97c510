package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Short returns the first n hex characters of the SHA-256 of seed. n is
// capped at the full digest length.
func Short(seed string, n int) string {
	sum := sha256.Sum256([]byte(seed))
	h := hex.EncodeToString(sum[:])
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// Nonce creates a 7-character hex name that differs between calls. It names
// short-lived staging directories.
func Nonce(prefix string) string {
	return Short(prefix+"\x00"+fmt.Sprintf("%d", time.Now().UnixNano()), 7)
}
