/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors
*/

package expr

import "sync"

// DefaultCacheLimit is the number of distinct sources a Cache holds before
// it starts over.
const DefaultCacheLimit = 1024

type cacheEntry struct {
	expr *Expression
	err  error
}

// Cache memoizes compilation by exact source text. Failed compilations are
// cached too, so a bad formula is parsed once.
type Cache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]cacheEntry
}

// NewCache creates an empty compile cache holding at most DefaultCacheLimit
// sources. When a new source would exceed the limit the cache is emptied
// first, so memory stays bounded when formulas come from user input.
func NewCache() *Cache {
	return &Cache{limit: DefaultCacheLimit, entries: make(map[string]cacheEntry)}
}

// Compile returns the compiled form of source, compiling it on first use.
func (c *Cache) Compile(source string) (*Expression, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[source]; ok {
		return e.expr, e.err
	}
	compiled, err := Compile(source)
	if len(c.entries) >= c.limit {
		clear(c.entries)
	}
	c.entries[source] = cacheEntry{expr: compiled, err: err}
	return compiled, err
}

// Len returns the number of distinct sources seen
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
