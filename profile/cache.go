package profile

import "sync"

// Cache holds resolved users keyed by user id.
//
// Every [Cache.Clear] advances a generation counter; [Cache.PutIf] refuses writes
// prepared under an older generation, so a fetch that was in flight across a clear
// cannot repopulate the cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]User
	gen     uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]User)}
}

// Get returns a copy of the entry for userID.
func (c *Cache) Get(userID string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.entries[userID]
	if !ok {
		return User{}, false
	}
	return u.Clone(), true
}

// Put replaces the entry for u.ID.
func (c *Cache) Put(u User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.ID] = u.Clone()
}

// Generation returns the current clear generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// PutIf stores u only if no clear happened since gen was read.
func (c *Cache) PutIf(gen uint64, u User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.entries[u.ID] = u.Clone()
	return true
}

// Delete drops the entry for userID.
func (c *Cache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]User)
	c.gen++
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
