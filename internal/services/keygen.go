package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateLicenseKey returns an opaque key string in XXXX-XXXX-XXXX-XXXX
// form. Uniqueness is enforced by the database index; the 64-bit space per
// key makes retries on collision unnecessary in practice.
func GenerateLicenseKey() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s-%s", raw[0:4], raw[4:8], raw[8:12], raw[12:16])
}

// GenerateOrderCode returns a human-referenceable order code.
func GenerateOrderCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + raw[0:10]
}

// GenerateSessionToken returns an opaque session token.
func GenerateSessionToken() string {
	return uuid.NewString() + uuid.NewString()[0:8]
}

// GenerateAPIKey returns a reseller API key.
func GenerateAPIKey() string {
	return "rk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
