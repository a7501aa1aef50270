// Package feedcache maintains the in-memory projection of a store
// collection, kept current by a push-based change feed.
//
// The remote store is the system of record; this cache is a derived,
// eventually-consistent copy. Three writers touch it: the initial seed,
// optimistic local updates after a successful write, and the change-feed
// handler. The feed is the authoritative path — an optimistic value only
// bridges the latency until the feed delivers the authoritative copy,
// and each entry tracks which of the two phases a reader is observing.
//
// Reconciliation itself is the pure Merge function: events are applied
// in receipt order, last write wins per record id, with no version
// checks (concurrent editors can overwrite one another; the feed's
// ordering is trusted as-is).
package feedcache

import (
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType classifies a change-feed event.
type EventType string

const (
	Added    EventType = "added"
	Modified EventType = "modified"
	Removed  EventType = "removed"
)

// Event is one change-feed notification for a single record.
type Event[T any] struct {
	// ID correlates the event through logs.
	ID   uuid.UUID
	Type EventType
	Key  primitive.ObjectID
	// Doc is the full document for Added/Modified; ignored for Removed.
	Doc T
}

// NewEvent builds an event with a fresh correlation id.
func NewEvent[T any](t EventType, key primitive.ObjectID, doc T) Event[T] {
	return Event[T]{ID: uuid.New(), Type: t, Key: key, Doc: doc}
}

// Record is a cache entry. Pending marks an optimistic local value that
// the authoritative feed copy has not yet overwritten.
type Record[T any] struct {
	Value   T
	Pending bool
}

// Merge applies one event to a snapshot of the cache and returns the new
// snapshot. It is pure: the input map is never mutated, so it can be
// tested independently of any cache instance or render trigger.
func Merge[T any](rows map[primitive.ObjectID]Record[T], e Event[T]) map[primitive.ObjectID]Record[T] {
	out := make(map[primitive.ObjectID]Record[T], len(rows)+1)
	for k, v := range rows {
		out[k] = v
	}
	switch e.Type {
	case Added, Modified:
		// Authoritative copy: overwrite whatever is there, clearing any
		// pending optimistic value.
		out[e.Key] = Record[T]{Value: e.Doc}
	case Removed:
		delete(out, e.Key)
	}
	return out
}

// Cache is a thread-safe projection of one collection.
type Cache[T any] struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]Record[T]
}

// New returns an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{rows: make(map[primitive.ObjectID]Record[T])}
}

// Seed replaces the projection with the result of an initial fetch.
// Seeded values are authoritative (not pending).
func (c *Cache[T]) Seed(items map[primitive.ObjectID]T) {
	rows := make(map[primitive.ObjectID]Record[T], len(items))
	for k, v := range items {
		rows[k] = Record[T]{Value: v}
	}
	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()
}

// Apply merges a feed event into the projection.
func (c *Cache[T]) Apply(e Event[T]) {
	c.mu.Lock()
	c.rows = Merge(c.rows, e)
	c.mu.Unlock()
}

// PutOptimistic stores a local value ahead of the feed. The entry stays
// pending until Apply delivers the authoritative copy.
func (c *Cache[T]) PutOptimistic(key primitive.ObjectID, v T) {
	c.mu.Lock()
	c.rows[key] = Record[T]{Value: v, Pending: true}
	c.mu.Unlock()
}

// RemoveOptimistic drops a record locally after a successful delete,
// ahead of the feed's removal event.
func (c *Cache[T]) RemoveOptimistic(key primitive.ObjectID) {
	c.mu.Lock()
	delete(c.rows, key)
	c.mu.Unlock()
}

// Get returns the cached record and whether it exists. Record.Pending
// tells the caller which phase they are observing.
func (c *Cache[T]) Get(key primitive.ObjectID) (Record[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.rows[key]
	return rec, ok
}

// Snapshot returns the current values, unordered. Callers filter through
// their policy scope and sort for presentation.
func (c *Cache[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.rows))
	for _, rec := range c.rows {
		out = append(out, rec.Value)
	}
	return out
}

// Len reports the number of cached records.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}
