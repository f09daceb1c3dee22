package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns n random bytes hex-encoded. Used for scratch file names
// so concurrent encodes of the same input never collide.
func RandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
