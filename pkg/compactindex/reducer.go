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

package compactindex

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Materializer collects every visited entry into an in-memory slice.
// Memory use is unbounded; callers use it for small indexes and tests.
type Materializer struct {
	entries []Entry
}

func NewMaterializer() *Materializer { return &Materializer{} }

func (m *Materializer) Visit(_ context.Context, e Entry) (bool, error) {
	m.entries = append(m.entries, e)
	return true, nil
}

func (m *Materializer) Finish() []Entry { return m.entries }

// ReadToMemory rewinds the reader and materializes all entries.
func ReadToMemory(ctx context.Context, r *Reader) ([]Entry, error) {
	r.Reset()
	return Consume[[]Entry](ctx, r, NewMaterializer(), NoTimeout)
}

// keyMapOverhead is the charged bookkeeping cost of one tracked key
// beyond its bytes: string header, map bucket share and the offset value.
// It directly sets the budget-fallback threshold of KeyDedupReducer, so
// it is pinned by tests rather than assumed.
const keyMapOverhead = 48

// KeyDedupReducer computes the keep-set for compaction: per prefixed key,
// only the latest offset seen survives. The key map is bounded by maxMem;
// once inserting another key would exceed it the reducer stops tracking
// and keeps every remaining offset unconditionally. Running out of budget
// must never drop an offset (that data would be unrecoverable), it may
// only retain more than strictly necessary.
type KeyDedupReducer struct {
	maxMem    int
	minOffset int64
	mem       int
	degraded  bool
	latest    map[string]int64
	keep      *roaring64.Bitmap
}

// NewKeyDedupReducer tracks keys under a maxMem byte budget over the full
// offset range.
func NewKeyDedupReducer(maxMem int) *KeyDedupReducer {
	return NewKeyDedupReducerFrom(0, maxMem)
}

// NewKeyDedupReducerFrom ignores entries below minOffset entirely.
func NewKeyDedupReducerFrom(minOffset int64, maxMem int) *KeyDedupReducer {
	return &KeyDedupReducer{
		maxMem:    maxMem,
		minOffset: minOffset,
		latest:    make(map[string]int64),
		keep:      roaring64.New(),
	}
}

func (d *KeyDedupReducer) Visit(_ context.Context, e Entry) (bool, error) {
	if e.Offset < d.minOffset {
		return true, nil
	}
	if d.degraded {
		d.keep.Add(uint64(e.Offset))
		return true, nil
	}
	k := string(e.Key)
	if prev, ok := d.latest[k]; ok {
		if e.Offset >= prev {
			d.keep.Remove(uint64(prev))
			d.keep.Add(uint64(e.Offset))
			d.latest[k] = e.Offset
		}
		return true, nil
	}
	cost := len(k) + keyMapOverhead
	if d.mem+cost > d.maxMem {
		d.degraded = true
		d.keep.Add(uint64(e.Offset))
		return true, nil
	}
	d.latest[k] = e.Offset
	d.mem += cost
	d.keep.Add(uint64(e.Offset))
	return true, nil
}

// Degraded reports whether the budget fallback kicked in during the scan.
func (d *KeyDedupReducer) Degraded() bool { return d.degraded }

func (d *KeyDedupReducer) Finish() *roaring64.Bitmap { return d.keep }

// FilteredCopyReducer re-emits only entries whose offset is in the
// keep-set into a destination writer, preserving order and content. Keys
// re-enter Index at their stored (already bounded) length, so no further
// truncation happens. The caller closes the destination writer after the
// pass.
type FilteredCopyReducer struct {
	keep   *roaring64.Bitmap
	dst    *Writer
	copied int
}

func NewFilteredCopyReducer(keep *roaring64.Bitmap, dst *Writer) *FilteredCopyReducer {
	return &FilteredCopyReducer{keep: keep, dst: dst}
}

func (f *FilteredCopyReducer) Visit(ctx context.Context, e Entry) (bool, error) {
	if !f.keep.Contains(uint64(e.Offset)) {
		return true, nil
	}
	if err := f.dst.Index(ctx, e.Type, e.RecordKey(), e.Offset, e.Delta); err != nil {
		return false, err
	}
	f.copied++
	return true, nil
}

// Finish returns the number of entries copied.
func (f *FilteredCopyReducer) Finish() int { return f.copied }
