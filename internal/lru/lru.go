// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lru is a small size-bounded cache used for compiled queries.
package lru

import (
	"container/list"
	"sync"
)

// Cache is a concurrency-safe LRU cache. A cache of size zero or less
// stores nothing.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	priority *list.List
	maxSize  int

	hits, misses uint64
}

type entry[V any] struct {
	key   string
	value V
}

func New[V any](size int) *Cache[V] {
	return &Cache[V]{
		maxSize:  size,
		priority: list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Put stores the value, replacing a previous value of the same key and
// evicting the least recently used entry when the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Value = entry[V]{key: key, value: value}
		c.priority.MoveToFront(e)
		return
	}
	if len(c.entries) >= c.maxSize {
		last := c.priority.Remove(c.priority.Back())
		delete(c.entries, last.(entry[V]).key)
	}
	c.entries[key] = c.priority.PushFront(entry[V]{key: key, value: value})
}

func (c *Cache[V]) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		return
	}
	delete(c.entries, key)
	c.priority.Remove(e)
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.priority.MoveToFront(e)
		return e.Value.(entry[V]).value, true
	}
	c.misses++
	var zero V
	return zero, false
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the number of hits and misses of Get.
func (c *Cache[V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
