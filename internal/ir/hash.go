package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainQuery    = "climaql/query/v1"
	DomainBindVars = "climaql/bindvars/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint identifies a compiled query by its text and bind
// variables. Equal queries with equal bind variables always share a
// fingerprint, regardless of map iteration order.
func QueryFingerprint(query string, bindVars map[string]any) (string, error) {
	if bindVars == nil {
		bindVars = map[string]any{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"query":     query,
		"bind_vars": bindVars,
	})
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// BindVarsHash identifies a bind-variable set on its own, so the journal can
// group executions of one query text over different inputs.
func BindVarsHash(bindVars map[string]any) (string, error) {
	if bindVars == nil {
		bindVars = map[string]any{}
	}
	canonical, err := MarshalCanonical(bindVars)
	if err != nil {
		return "", fmt.Errorf("BindVarsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBindVars, canonical), nil
}

// MustQueryFingerprint is like QueryFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryFingerprint(query string, bindVars map[string]any) string {
	fp, err := QueryFingerprint(query, bindVars)
	if err != nil {
		panic(err)
	}
	return fp
}
