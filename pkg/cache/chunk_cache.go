// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

// Package cache provides a byte-capacity LRU over read chunks of remote
// index objects.
package cache

import (
	"container/list"
	"fmt"
	"sync"
)

// ChunkCache is an LRU cache keyed by (object name, chunk base offset)
// storing chunk bytes, bounded by total byte capacity.
type ChunkCache struct {
	mu       sync.Mutex
	capacity int
	size     int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key  string
	name string
	base int64
	data []byte
}

// NewChunkCache creates a cache with capacity in bytes.
func NewChunkCache(capacityBytes int) *ChunkCache {
	if capacityBytes <= 0 {
		capacityBytes = 1
	}
	return &ChunkCache{
		capacity: capacityBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func makeKey(name string, base int64) string {
	return fmt.Sprintf("%s:%d", name, base)
}

// Get returns cached chunk data if present.
func (c *ChunkCache) Get(name string, base int64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[makeKey(name, base)]; ok {
		c.ll.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		return entry.data, true
	}
	return nil, false
}

// Set adds or updates a chunk.
func (c *ChunkCache) Set(name string, base int64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := makeKey(name, base)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size -= len(entry.data)
		entry.data = append(entry.data[:0], data...)
		c.size += len(entry.data)
		c.ll.MoveToFront(elem)
		c.evictIfNeeded()
		return
	}
	entry := &cacheEntry{
		key:  key,
		name: name,
		base: base,
		data: append([]byte(nil), data...),
	}
	elem := c.ll.PushFront(entry)
	c.items[key] = elem
	c.size += len(entry.data)
	c.evictIfNeeded()
}

// Remove drops every chunk cached for the named object.
func (c *ChunkCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for elem := c.ll.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*cacheEntry)
		if entry.name == name {
			c.removeElement(elem)
		}
		elem = next
	}
}

func (c *ChunkCache) evictIfNeeded() {
	for c.size > c.capacity && c.ll.Len() > 0 {
		c.removeElement(c.ll.Back())
	}
}

func (c *ChunkCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.ll.Remove(elem)
	delete(c.items, entry.key)
	c.size -= len(entry.data)
}

// Size returns the cached byte count (for tests/metrics).
func (c *ChunkCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached chunks.
func (c *ChunkCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
