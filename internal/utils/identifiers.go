package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateCertificateID builds a human-readable certificate identifier,
// e.g. CERT-2026-3F9A1C4B. Uniqueness is enforced by the database; callers
// retry on the rare collision.
func GenerateCertificateID(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("CERT-%d-%s", now.Year(), strings.ToUpper(id.String()[:8]))
}

// verificationAlphabet avoids ambiguous characters (0/O, 1/I/L).
const verificationAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateVerificationCode produces a 12-character code for the public
// certificate verification endpoint.
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	code := make([]byte, len(buf))
	for i, b := range buf {
		code[i] = verificationAlphabet[int(b)%len(verificationAlphabet)]
	}
	return string(code), nil
}
