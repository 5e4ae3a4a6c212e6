package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for query hashes. The version suffix leaves room for
// changing the encoding without colliding with stored hashes.
const (
	DomainQuery = "aqlgen/query/v1"
	DomainShape = "aqlgen/shape/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint identifies one concrete query: its text together with the
// values bound to it.
func QueryFingerprint(text string, bindVars map[string]any) (string, error) {
	if bindVars == nil {
		bindVars = map[string]any{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"query":     text,
		"bind_vars": bindVars,
	})
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// ShapeHash identifies the query text alone. Queries that differ only in
// bound values share a shape and therefore a server-side plan.
func ShapeHash(text string) string {
	canonical, err := MarshalCanonical(text)
	if err != nil {
		// a plain string always marshals
		panic(err)
	}
	return hashWithDomain(DomainShape, canonical)
}
