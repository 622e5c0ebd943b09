package ldevents

import "container/list"

// lruCache tracks the most recently seen context keys so the dispatcher can suppress duplicate
// index events, evicting the least-recently-used entry once capacity is exceeded. Grounded on
// the SDK's ldevents lru_cache (reconstructed from lru_cache_test.go, since the production
// file isn't present in the reference corpus).
type lruCache struct {
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

func newLruCache(capacity int) lruCache {
	return lruCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// add records key as seen and returns true if it was already known. A zero-capacity cache never
// remembers anything, so every call returns false.
func (c *lruCache) add(key string) bool {
	if c.capacity <= 0 {
		return false
	}
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return true
	}
	el := c.order.PushFront(key)
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(string))
		}
	}
	return false
}

func (c *lruCache) clear() {
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}
