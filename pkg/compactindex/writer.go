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
	"bytes"
	"context"
	"fmt"
	"hash/crc32"

	"github.com/novatechflow/compactix/pkg/resources"
	"github.com/novatechflow/compactix/pkg/storage"
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// DefaultWriterMem is used when no memory budget is configured.
const DefaultWriterMem = 64 * 1024

// Writer appends index entries into a backing sink, buffering up to a
// memory budget and spilling to the sink when the budget would be
// exceeded. Close finalizes the index with a footer. A Writer is
// single-use: no calls are valid after Close. Not safe for concurrent
// use; callers issue at most one operation at a time.
type Writer struct {
	name    string
	backing storage.Backing
	lease   *resources.Lease
	maxMem  int
	metrics *Metrics

	buf    bytes.Buffer
	keys   uint32
	size   uint64
	crc    uint32
	closed bool
}

// NewWriter creates a writer over backing. The memory budget is acquired
// from coord up front and released on Close; a nil coordinator skips
// admission. resources.ErrExhausted surfaces unchanged so the caller can
// back off and retry.
func NewWriter(name string, backing storage.Backing, coord *resources.Coordinator, maxMem int, m *Metrics) (*Writer, error) {
	if maxMem <= 0 {
		maxMem = DefaultWriterMem
	}
	var lease *resources.Lease
	if coord != nil {
		var err error
		lease, err = coord.AcquireMemory(int64(maxMem))
		if err != nil {
			return nil, err
		}
	}
	return &Writer{
		name:    name,
		backing: backing,
		lease:   lease,
		maxMem:  maxMem,
		metrics: m,
	}, nil
}

// Index encodes one entry (clipping oversized keys) and appends it,
// spilling the buffer to the backing sink first if the entry would push
// it past the memory budget. Entries are preserved in append order.
func (w *Writer) Index(ctx context.Context, bt BatchType, key []byte, offset, delta int64) error {
	if w.closed {
		return fmt.Errorf("index %s: %w", w.name, ErrClosed)
	}
	entry := EncodeEntry(bt, key, offset, delta)
	if w.buf.Len() > 0 && w.buf.Len()+len(entry) > w.maxMem {
		if err := w.spill(ctx); err != nil {
			return err
		}
	}
	w.buf.Write(entry)
	// A single entry can exceed the whole budget; push it out right away.
	if w.buf.Len() > w.maxMem {
		if err := w.spill(ctx); err != nil {
			return err
		}
	}
	w.keys++
	w.size += uint64(len(entry))
	w.crc = crc32.Update(w.crc, crcTable, entry)
	w.metrics.entryIndexed()
	if keyTruncated(key) {
		w.metrics.keyTruncated()
	}
	return nil
}

func (w *Writer) spill(ctx context.Context) error {
	if w.buf.Len() == 0 {
		return nil
	}
	n := w.buf.Len()
	if err := w.backing.Append(ctx, w.buf.Bytes()); err != nil {
		return fmt.Errorf("index %s spill: %w", w.name, err)
	}
	w.buf.Reset()
	w.metrics.bytesSpilled(n)
	return nil
}

// Close flushes buffered entries, appends the footer and releases the
// memory lease. The writer is terminal afterwards; further Index or
// Close calls fail with ErrClosed.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return fmt.Errorf("index %s: %w", w.name, ErrClosed)
	}
	w.closed = true
	defer func() {
		if w.lease != nil {
			w.lease.Release()
		}
	}()
	if err := w.spill(ctx); err != nil {
		return err
	}
	footer := Footer{Keys: w.keys, Size: w.size, Version: VersionKeyPrefixed, CRC: w.crc}
	if err := w.backing.Append(ctx, encodeFooter(footer)); err != nil {
		return fmt.Errorf("index %s footer: %w", w.name, err)
	}
	return nil
}

// Keys returns the number of entries indexed so far.
func (w *Writer) Keys() uint32 { return w.keys }

// Size returns the byte length of the entry region written so far.
func (w *Writer) Size() uint64 { return w.size }

func (w *Writer) String() string {
	return fmt.Sprintf("compacted index %s: keys=%d size=%d closed=%v", w.name, w.keys, w.size, w.closed)
}
