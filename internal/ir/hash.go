package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// The version suffix allows the digest layout to change without colliding
// with digests already stored in a run history database.
const (
	DomainOutcome = "optharness/outcome/v1"
	DomainOutput  = "optharness/output/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the hex SHA-256 of v's canonical JSON under the given
// domain. Two runs that observe the same outcome for a test produce the same
// digest, which is what run comparison keys on.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// DigestBytes hashes raw bytes under the given domain.
func DigestBytes(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}
