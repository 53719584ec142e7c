package svm

// cacheHead holds one cached column. Cached heads form a circular
// doubly-linked LRU list anchored at columnCache.lru.
type cacheHead struct {
	prev, next *cacheHead
	data       []float64
}

// columnCache keeps Q columns of varying length under a fixed budget of
// float64 entries, evicting the least recently used column first.
type columnCache struct {
	heads []cacheHead
	lru   cacheHead
	free  int64
}

// newColumnCache sizes the cache from a megabyte budget. It always holds at
// least two full columns.
func newColumnCache(l int, sizeMB float64) *columnCache {
	size := int64(sizeMB * (1 << 20) / 8)
	size -= int64(l) * 4 // per-column bookkeeping
	if size < 2*int64(l) {
		size = 2 * int64(l)
	}
	c := &columnCache{heads: make([]cacheHead, l), free: size}
	c.lru.prev = &c.lru
	c.lru.next = &c.lru
	return c
}

func (c *columnCache) unlink(h *cacheHead) {
	h.prev.next = h.next
	h.next.prev = h.prev
}

// insertLast marks h as most recently used.
func (c *columnCache) insertLast(h *cacheHead) {
	h.next = &c.lru
	h.prev = c.lru.prev
	h.prev.next = h
	h.next.prev = h
}

func (c *columnCache) evict(h *cacheHead) {
	c.unlink(h)
	c.free += int64(len(h.data))
	h.data = nil
}

// get returns a buffer of at least length entries for column index and the
// position from which the caller must fill it. Nothing needs filling when
// the returned position is >= length.
func (c *columnCache) get(index, length int) ([]float64, int) {
	h := &c.heads[index]
	have := len(h.data)
	if have > 0 {
		c.unlink(h)
	}
	if more := length - have; more > 0 {
		for c.free < int64(more) && c.lru.next != &c.lru {
			c.evict(c.lru.next)
		}
		data := make([]float64, length)
		copy(data, h.data)
		h.data = data
		c.free -= int64(more)
	}
	c.insertLast(h)
	return h.data, have
}

// swap exchanges rows and columns i and j. Columns too short to contain
// both positions are dropped.
func (c *columnCache) swap(i, j int) {
	if i == j {
		return
	}
	hi, hj := &c.heads[i], &c.heads[j]
	if len(hi.data) > 0 {
		c.unlink(hi)
	}
	if len(hj.data) > 0 {
		c.unlink(hj)
	}
	hi.data, hj.data = hj.data, hi.data
	if len(hi.data) > 0 {
		c.insertLast(hi)
	}
	if len(hj.data) > 0 {
		c.insertLast(hj)
	}

	if i > j {
		i, j = j, i
	}
	for h := c.lru.next; h != &c.lru; {
		next := h.next
		if len(h.data) > i {
			if len(h.data) > j {
				h.data[i], h.data[j] = h.data[j], h.data[i]
			} else {
				c.evict(h)
			}
		}
		h = next
	}
}

// cachedColumns returns the number of columns currently cached.
func (c *columnCache) cachedColumns() int {
	n := 0
	for h := c.lru.next; h != &c.lru; h = h.next {
		n++
	}
	return n
}
