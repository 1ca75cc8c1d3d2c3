package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// GeneratePublicCode returns a human readable gig code such as GIG-042317.
func GeneratePublicCode() string {
	return fmt.Sprintf("GIG-%06d", 100_000+rand.IntN(900_000))
}

// IdempotencyKey derives a stable fixed-length key from its parts, so retries
// of the same operation reach the provider with the same key.
func IdempotencyKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}
