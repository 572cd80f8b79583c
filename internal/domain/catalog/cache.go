package catalog

import (
	"sync"

	"ayanna/internal/core/id"
)

// enterpriseCache is the only cross-session state of the core: enterprises are read
// on every sale for their currency and change rarely.
type enterpriseCache struct {
	mu    sync.RWMutex
	items map[id.ID]Enterprise
}

func newEnterpriseCache() *enterpriseCache {
	return &enterpriseCache{items: make(map[id.ID]Enterprise)}
}

func (c *enterpriseCache) get(enterpriseID id.ID) (*Enterprise, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[enterpriseID]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (c *enterpriseCache) put(e *Enterprise) {
	c.mu.Lock()
	c.items[e.ID] = *e
	c.mu.Unlock()
}

func (c *enterpriseCache) invalidate(enterpriseID id.ID) {
	c.mu.Lock()
	delete(c.items, enterpriseID)
	c.mu.Unlock()
}
