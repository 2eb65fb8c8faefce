package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Tenant is a sanitized tenant identifier. It defines the isolation
// boundary for one customer's documents and vectors: every tenant owns
// a document-store namespace and a vector-index collection derived from
// its identifier.
//
// A Tenant only ever contains characters from [A-Za-z0-9_]. Two raw
// inputs that sanitize to the same string share one namespace; collisions
// are a caller-input-hygiene concern, not an engine bug.
type Tenant string

// NewTenant sanitizes a raw tenant identifier. Any character outside
// [A-Za-z0-9_] is mapped to '_'. An empty input is rejected with
// ErrInvalidConfiguration.
func NewTenant(raw string) (Tenant, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty tenant identifier", ErrInvalidConfiguration)
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return Tenant(b.String()), nil
}

// DocNamespace returns the document-store namespace for this tenant.
func (t Tenant) DocNamespace(prefix string) string {
	return prefix + ":" + string(t) + ":docs"
}

// VectorCollection returns the vector-index collection name for this tenant.
func (t Tenant) VectorCollection(prefix string) string {
	return prefix + "_" + string(t) + "_vectors"
}

// CompositeID builds the shared retrievable key for a document within a
// tenant. All chunks of one document carry the same composite id so a
// single delete cascades across the whole chunk set.
func (t Tenant) CompositeID(documentID int64) string {
	return string(t) + ":" + strconv.FormatInt(documentID, 10)
}
