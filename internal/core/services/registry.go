package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure Registry implements the interface.
var _ driving.Registry = (*Registry)(nil)

// EngineFactory constructs an engine for a sanitized tenant.
type EngineFactory func(ctx context.Context, tenant domain.Tenant) (driving.Engine, error)

// handle is one cached engine slot. Construction runs under the slot's
// Once so concurrent callers for the same tenant observe a single engine.
type handle struct {
	once   sync.Once
	engine driving.Engine
	err    error
}

// Registry maps raw tenant identifiers to cached engine handles with a
// construct-once-per-key guarantee. Its cache is the only globally
// shared mutable structure in the engine; lifetime is the process, and
// ClearCache exists for tests.
type Registry struct {
	factory EngineFactory

	mu      sync.Mutex
	handles map[domain.Tenant]*handle
}

// NewRegistry creates a registry around an engine factory.
func NewRegistry(factory EngineFactory) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil engine factory", domain.ErrInvalidConfiguration)
	}
	return &Registry{
		factory: factory,
		handles: make(map[domain.Tenant]*handle),
	}, nil
}

// GetOrCreate sanitizes tenantRaw and returns the tenant's engine.
// With useCache false a fresh engine is constructed and never cached.
func (r *Registry) GetOrCreate(
	ctx context.Context, tenantRaw string, useCache bool,
) (driving.Engine, error) {
	tenant, err := domain.NewTenant(tenantRaw)
	if err != nil {
		return nil, err
	}

	if !useCache {
		return r.factory(ctx, tenant)
	}

	r.mu.Lock()
	h, ok := r.handles[tenant]
	if !ok {
		h = &handle{}
		r.handles[tenant] = h
	}
	r.mu.Unlock()

	h.once.Do(func() {
		logger.Debug("Constructing engine for tenant %q", tenant)
		h.engine, h.err = r.factory(ctx, tenant)
	})
	if h.err != nil {
		// Drop the failed slot so a later call can retry construction.
		r.mu.Lock()
		if r.handles[tenant] == h {
			delete(r.handles, tenant)
		}
		r.mu.Unlock()
		return nil, h.err
	}
	return h.engine, nil
}

// ClearCache drops all cached handles. It does not close underlying
// store connections; those are owned by the stores themselves.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = make(map[domain.Tenant]*handle)
}
