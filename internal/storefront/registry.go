package storefront

import (
	"container/list"
	"sync"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// CartFactory builds the cart manager of a device.
type CartFactory struct {
	repo    repositories.CartRepository
	metrics *metrics.Metrics
}

// NewCartFactory creates a factory over repo.
func NewCartFactory(repo repositories.CartRepository, m *metrics.Metrics) *CartFactory {
	return &CartFactory{repo: repo, metrics: m}
}

// For returns a cart manager bound to deviceID's storage key.
func (f *CartFactory) For(deviceID string) *services.CartManager {
	return services.NewCartManager(f.repo, repositories.DeviceCartKey(deviceID), f.metrics)
}

// RegistryOption tunes a Registry.
type RegistryOption func(*Registry)

// WithLimits bounds the registry to max live controllers and drops controllers unused for idle.
// Zero disables the respective limit.
func WithLimits(max int, idle time.Duration) RegistryOption {
	return func(r *Registry) {
		r.max = max
		r.idle = idle
	}
}

// WithClock replaces the clock used for idle expiry.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

type registryEntry struct {
	controller *Controller
	lastUsed   time.Time
}

// Registry hands out one started controller per device. Least recently used controllers are
// dropped past the configured limits; a controller with a checkout in flight is never dropped.
// Carts are persisted, so a dropped device gets its bag back on the next request.
type Registry struct {
	mu      sync.Mutex
	svc     Services
	entries map[string]*list.Element
	recency *list.List // front is most recently used
	max     int
	idle    time.Duration
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(svc Services, opts ...RegistryOption) *Registry {
	r := &Registry{
		svc:     svc,
		entries: make(map[string]*list.Element),
		recency: list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the controller of deviceID, creating and starting it on first use.
// A controller that fails to start is not kept.
func (r *Registry) Get(deviceID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if el, ok := r.entries[deviceID]; ok {
		entry := el.Value.(*registryEntry)
		entry.lastUsed = now
		r.recency.MoveToFront(el)
		return entry.controller, nil
	}
	c := NewController(deviceID, r.svc)
	if err := c.Start(); err != nil {
		return nil, err
	}
	r.entries[deviceID] = r.recency.PushFront(&registryEntry{controller: c, lastUsed: now})
	r.evictLocked(now)
	return c, nil
}

// Detached returns a started controller for deviceID without keeping it. Use it for
// read-only requests from devices that have no state yet.
func (r *Registry) Detached(deviceID string) (*Controller, error) {
	r.mu.Lock()
	if el, ok := r.entries[deviceID]; ok {
		r.mu.Unlock()
		return el.Value.(*registryEntry).controller, nil
	}
	r.mu.Unlock()

	c := NewController(deviceID, r.svc)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

// evictLocked walks from the least recently used end and drops idle or excess controllers.
func (r *Registry) evictLocked(now time.Time) {
	for el := r.recency.Back(); el != nil && el != r.recency.Front(); {
		prev := el.Prev()
		entry := el.Value.(*registryEntry)
		over := r.max > 0 && len(r.entries) > r.max
		expired := r.idle > 0 && now.Sub(entry.lastUsed) > r.idle
		if !over && !expired {
			break
		}
		if !entry.controller.Busy() {
			r.recency.Remove(el)
			delete(r.entries, entry.controller.DeviceID())
		}
		el = prev
	}
}

// Len is the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Broadcast calls fn on every live controller outside the registry lock.
func (r *Registry) Broadcast(fn func(*Controller)) {
	r.mu.Lock()
	all := make([]*Controller, 0, len(r.entries))
	for el := r.recency.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value.(*registryEntry).controller)
	}
	r.mu.Unlock()

	for _, c := range all {
		fn(c)
	}
}
