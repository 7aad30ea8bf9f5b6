package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign returns the HMAC-SHA256 signature of "{timestamp}.{payload}" in the
// format "v1=<hex>".
func Sign(payload []byte, secret string, timestamp int64) string {
	content := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(content))
	return "v1=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of payload at timestamp.
func Verify(payload []byte, secret string, timestamp int64, sig string) bool {
	return hmac.Equal([]byte(Sign(payload, secret, timestamp)), []byte(sig))
}
