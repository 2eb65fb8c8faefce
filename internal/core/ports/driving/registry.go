package driving

import "context"

// Registry maps raw tenant identifiers to engine handles.
//
// Concurrent GetOrCreate calls for the same tenant observe a single
// handle: construction happens once per sanitized key.
type Registry interface {
	// GetOrCreate sanitizes tenantRaw and returns the tenant's engine.
	// With useCache true, a cached handle is returned when present and
	// the constructed handle is cached for later calls. With useCache
	// false a fresh handle is constructed and never cached.
	GetOrCreate(ctx context.Context, tenantRaw string, useCache bool) (Engine, error)

	// ClearCache drops all cached handles. Underlying store connections
	// are owned by the stores themselves and stay open.
	ClearCache()
}
