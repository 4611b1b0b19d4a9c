package telemetry

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sign computes the hex HMAC-SHA256 over
// packageID:sessionID:timestampMillis:JSON(data) with the pre-shared
// secret baked into the package at build time.
func Sign(secret, packageID, sessionID string, tsMillis int64, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(packageID))
	mac.Write([]byte{':'})
	mac.Write([]byte(sessionID))
	mac.Write([]byte{':'})
	mac.Write([]byte(strconv.FormatInt(tsMillis, 10)))
	mac.Write([]byte{':'})
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time. Used by the collector.
func Verify(secret, packageID, sessionID string, tsMillis int64, data []byte, signature string) bool {
	want := Sign(secret, packageID, sessionID, tsMillis, data)
	return hmac.Equal([]byte(want), []byte(signature))
}
