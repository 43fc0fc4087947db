package kite

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum signs a request-token exchange: the lowercase hex SHA-256 of
// apiKey + requestToken + apiSecret, in that order.
func Checksum(apiKey, requestToken, apiSecret string) string {
	h := sha256.New()
	h.Write([]byte(apiKey))
	h.Write([]byte(requestToken))
	h.Write([]byte(apiSecret))
	return hex.EncodeToString(h.Sum(nil))
}
