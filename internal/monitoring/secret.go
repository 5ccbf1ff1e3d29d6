package monitoring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateSecret produces a subscription's HMAC signing secret: 32 random
// bytes, hex-encoded. Grounded on webhooks.rs's generate_secret, ported from
// rand::thread_rng to crypto/rand since this secret authenticates callback
// payloads and must come from a CSPRNG.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
