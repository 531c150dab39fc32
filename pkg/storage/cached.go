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

package storage

import (
	"context"

	"github.com/novatechflow/compactix/pkg/cache"
)

// DefaultChunkSize is the chunk granularity for cached reads.
const DefaultChunkSize = 64 * 1024

// CachedBacking wraps a Backing with a read-through chunk cache. Useful
// in front of S3Backing, where repeated reducer passes over the same
// index would otherwise repeat ranged GETs.
type CachedBacking struct {
	name      string
	inner     Backing
	cache     *cache.ChunkCache
	chunkSize int64
}

// NewCachedBacking wraps inner. chunkSize <=0 selects DefaultChunkSize.
func NewCachedBacking(name string, inner Backing, c *cache.ChunkCache, chunkSize int) *CachedBacking {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &CachedBacking{name: name, inner: inner, cache: c, chunkSize: int64(chunkSize)}
}

// Append writes through and drops cached chunks, since the object's
// bytes (and size) changed.
func (b *CachedBacking) Append(ctx context.Context, p []byte) error {
	if err := b.inner.Append(ctx, p); err != nil {
		return err
	}
	b.cache.Remove(b.name)
	return nil
}

func (b *CachedBacking) ReadAt(ctx context.Context, offset int64, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	total := b.inner.Size()
	pos := offset
	remaining := int64(length)
	for remaining > 0 {
		base := pos - pos%b.chunkSize
		chunk, ok := b.cache.Get(b.name, base)
		if !ok {
			n := b.chunkSize
			if base+n > total {
				n = total - base
			}
			loaded, err := b.inner.ReadAt(ctx, base, int(n))
			if err != nil {
				return nil, err
			}
			b.cache.Set(b.name, base, loaded)
			chunk = loaded
		}
		start := pos - base
		take := int64(len(chunk)) - start
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			break
		}
		out = append(out, chunk[start:start+take]...)
		pos += take
		remaining -= take
	}
	if remaining > 0 {
		// Fall back for ranges the chunking could not satisfy.
		return b.inner.ReadAt(ctx, offset, length)
	}
	return out, nil
}

func (b *CachedBacking) Size() int64 {
	return b.inner.Size()
}

func (b *CachedBacking) Close() error {
	b.cache.Remove(b.name)
	return b.inner.Close()
}
