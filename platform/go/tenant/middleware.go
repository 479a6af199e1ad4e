package tenant

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HeaderName carries the caller's tenant id. Authentication happens upstream
// (gateway/session layer); this middleware only resolves and scopes.
const HeaderName = "X-Tenant-ID"

// Resolver defines the minimal lookup capability required to populate a tenant Identity.
// Implemented by the tenant registry store.
type Resolver interface {
	ResolveTenant(ctx context.Context, tenantID uuid.UUID) (Identity, error)
}

// Config controls middleware behavior.
type Config struct {
	// Optional small in-memory TTL cache to avoid DB hits; zero disables caching.
	CacheTTL time.Duration
}

// WithIdentityMiddleware resolves the tenant header and attaches tenant.Identity to the context.
// Requests without a valid, known tenant are rejected before reaching handlers.
func WithIdentityMiddleware(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	var cache *identityCache
	if cfg.CacheTTL > 0 {
		cache = newIdentityCache(cfg.CacheTTL)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderName)
			if raw == "" {
				http.Error(w, "tenant required", http.StatusUnauthorized)
				return
			}

			tid, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid tenant id", http.StatusUnauthorized)
				return
			}

			if cached := cache.get(tid); cached != nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *cached)))
				return
			}

			identity, err := resolver.ResolveTenant(r.Context(), tid)
			if err != nil {
				http.Error(w, "unknown tenant", http.StatusUnauthorized)
				return
			}

			cache.put(tid, identity)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

type identityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	identity Identity
	expires  time.Time
}

func newIdentityCache(ttl time.Duration) *identityCache {
	return &identityCache{
		ttl:     ttl,
		entries: make(map[uuid.UUID]cacheEntry),
	}
}

func (c *identityCache) get(id uuid.UUID) *Identity {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil
	}

	identity := entry.identity
	return &identity
}

func (c *identityCache) put(id uuid.UUID, identity Identity) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.entries[id] = cacheEntry{identity: identity, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}
