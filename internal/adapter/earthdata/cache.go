package earthdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
)

// CachedProvider wraps a SeriesProvider with an in-memory LRU cache.
// Satellite products for a past date range are immutable, so cached entries
// never need invalidation, only eviction.
type CachedProvider struct {
	inner   domain.SeriesProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.SeriesProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) FetchSeries(ctx context.Context, dataset string, geo domain.Geo, r domain.DateRange) (domain.TimeSeries, error) {
	key := fmt.Sprintf("%s|%.6f,%.6f|%s|%s", dataset, geo.Lat, geo.Lng, domain.DayKey(r.Start), domain.DayKey(r.End))
	if series, ok := c.cache.get(key); ok {
		c.metrics.ProviderCache.WithLabelValues(dataset, "hit").Inc()
		return series, nil
	}
	c.metrics.ProviderCache.WithLabelValues(dataset, "miss").Inc()

	series, err := c.inner.FetchSeries(ctx, dataset, geo, r)
	if err != nil {
		return series, err
	}
	// Only cache non-empty series so ranges the upstream has not produced
	// yet can be retried.
	if !series.Empty() {
		c.cache.put(key, series)
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache for fetched series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.TimeSeries
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.TimeSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.TimeSeries{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.TimeSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
