package tlcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ItemID derives a stable item id from text, for content that has no natural id
// of its own. Surrounding whitespace is ignored.
func ItemID(text string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(hash[:])
}
