// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache with a soft size limit.
//
// When an insert pushes the cache past its limit, the least recently used
// quarter of the entries is dropped in one sweep, so eviction cost is paid
// rarely rather than on every insert.
//
//	c := cache.New[rune, *Glyph](256)
//	g := c.GetOrCreate('A', func() *Glyph { return render('A') })
package cache

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Cache is a thread-safe LRU cache. A Cache must not be copied after first use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	limit   int
	tick    int64

	hits   atomic.Uint64
	misses atomic.Uint64
}

type entry[V any] struct {
	value V
	atime int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len    int
	Limit  int
	Hits   uint64
	Misses uint64
}

// New returns a cache holding about limit entries. Zero means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		limit:   limit,
	}
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// Set stores value under key, evicting old entries if the limit is exceeded.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insert(key, value)
}

// GetOrCreate returns the cached value for key, calling create on a miss.
// create runs under the cache lock and must not use the cache.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.hits.Add(1)
		c.tick++
		e.atime = c.tick
		return e.value
	}
	c.misses.Add(1)
	v := create()
	c.insert(key, v)
	return v
}

// Clear drops every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.tick = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Len:    n,
		Limit:  c.limit,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// insert stores value and evicts if needed. Caller holds c.mu.
func (c *Cache[K, V]) insert(key K, value V) {
	c.tick++
	c.entries[key] = &entry[V]{value: value, atime: c.tick}

	if c.limit > 0 && len(c.entries) > c.limit {
		c.evict()
	}
}

// evict shrinks the cache to three quarters of its limit, oldest first.
// Caller holds c.mu.
func (c *Cache[K, V]) evict() {
	target := max(c.limit*3/4, 1)
	n := len(c.entries) - target
	if n <= 0 {
		return
	}

	type aged struct {
		key   K
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.atime})
	}
	slices.SortFunc(all, func(a, b aged) int {
		return int(a.atime - b.atime)
	})
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
}
