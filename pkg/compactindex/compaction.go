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
	"github.com/novatechflow/compactix/pkg/resources"
)

// OffsetsToKeep runs a full key-deduplication pass over the index and
// returns the keep-set: the offsets whose records must survive
// compaction. The dedup memory budget is leased from coord for the
// duration of the pass; a nil coordinator skips admission.
func OffsetsToKeep(ctx context.Context, r *Reader, coord *resources.Coordinator, maxMem int) (*roaring64.Bitmap, error) {
	return GenerateCompactedList(ctx, 0, r, coord, maxMem)
}

// GenerateCompactedList is OffsetsToKeep starting from a minimum offset;
// entries below it are ignored. Callers that only rewrite the tail of a
// segment use it to drive the physical record filter directly.
func GenerateCompactedList(ctx context.Context, minOffset int64, r *Reader, coord *resources.Coordinator, maxMem int) (*roaring64.Bitmap, error) {
	if maxMem <= 0 {
		maxMem = DefaultWriterMem
	}
	if coord != nil {
		lease, err := coord.AcquireMemory(int64(maxMem))
		if err != nil {
			return nil, err
		}
		defer lease.Release()
	}
	r.Reset()
	return Consume[*roaring64.Bitmap](ctx, r, NewKeyDedupReducerFrom(minOffset, maxMem), NoTimeout)
}

// FilterInto rewinds the reader and copies every entry whose offset is in
// keep into dst, returning the number copied. dst stays open; the caller
// closes it once the pass (and anything else it wants to append) is done.
func FilterInto(ctx context.Context, r *Reader, keep *roaring64.Bitmap, dst *Writer) (int, error) {
	r.Reset()
	return Consume[int](ctx, r, NewFilteredCopyReducer(keep, dst), NoTimeout)
}
