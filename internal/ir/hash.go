package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "bfc/program/v1"
	DomainOutput  = "bfc/output/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed identity of a compiled program.
// Two sources that differ only in commentary hash identically.
func ProgramHash(p Program) (string, error) {
	canonical, err := MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// OutputDigest hashes the bytes a run wrote. Used by replay to compare runs
// without keeping both outputs in memory.
func OutputDigest(out []byte) string {
	return hashWithDomain(DomainOutput, out)
}
