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
	"bytes"
	"context"
	"testing"

	"github.com/novatechflow/compactix/pkg/cache"
)

type countingBacking struct {
	*MemoryBacking
	reads int
}

func (c *countingBacking) ReadAt(ctx context.Context, offset int64, length int) ([]byte, error) {
	c.reads++
	return c.MemoryBacking.ReadAt(ctx, offset, length)
}

func TestCachedBackingReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingBacking{MemoryBacking: NewMemoryBacking()}
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := inner.Append(ctx, payload); err != nil {
		t.Fatalf("Append: %v", err)
	}

	c := cache.NewChunkCache(1 << 20)
	b := NewCachedBacking("seg-0", inner, c, 128)

	got, err := b.ReadAt(ctx, 0, 200)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload[:200]) {
		t.Fatalf("read mismatch")
	}
	readsAfterFirst := inner.reads

	// Same range again: all chunks cached, no inner reads.
	got, err = b.ReadAt(ctx, 0, 200)
	if err != nil {
		t.Fatalf("ReadAt cached: %v", err)
	}
	if !bytes.Equal(got, payload[:200]) {
		t.Fatalf("cached read mismatch")
	}
	if inner.reads != readsAfterFirst {
		t.Fatalf("cached read hit inner backing (%d -> %d reads)", readsAfterFirst, inner.reads)
	}

	// A straddling range reuses cached chunks and loads the rest.
	got, err = b.ReadAt(ctx, 100, 150)
	if err != nil {
		t.Fatalf("ReadAt straddle: %v", err)
	}
	if !bytes.Equal(got, payload[100:250]) {
		t.Fatalf("straddle read mismatch")
	}
}

func TestCachedBackingAppendInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingBacking{MemoryBacking: NewMemoryBacking()}
	if err := inner.Append(ctx, bytes.Repeat([]byte{1}, 64)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	c := cache.NewChunkCache(1 << 20)
	b := NewCachedBacking("seg-1", inner, c, 128)

	if _, err := b.ReadAt(ctx, 0, 64); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if c.Len() == 0 {
		t.Fatalf("nothing cached")
	}
	if err := b.Append(ctx, bytes.Repeat([]byte{2}, 64)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("append left stale chunks cached")
	}
	got, err := b.ReadAt(ctx, 64, 64)
	if err != nil {
		t.Fatalf("ReadAt after append: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{2}, 64)) {
		t.Fatalf("read returned stale bytes")
	}
}
