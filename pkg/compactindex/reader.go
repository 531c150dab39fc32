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
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/novatechflow/compactix/pkg/storage"
)

// DefaultReadBuf is the read-ahead window used when none is configured.
const DefaultReadBuf = 32 * 1024

// NoTimeout makes Consume run to end-of-stream.
const NoTimeout time.Duration = 0

// Reader streams a finalized index from a backing source in file order.
// It may be Reset and re-consumed any number of times. Not safe for
// concurrent use.
type Reader struct {
	name    string
	backing storage.Backing
	bufSize int
	metrics *Metrics

	footer *Footer
	pos    int64
	window []byte
	winOff int64
}

// NewReader opens a reader over backing. bufSize controls the read-ahead
// window; <=0 selects DefaultReadBuf.
func NewReader(name string, backing storage.Backing, bufSize int, m *Metrics) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultReadBuf
	}
	return &Reader{name: name, backing: backing, bufSize: bufSize, metrics: m}
}

// LoadFooter reads and validates the trailing footer, caching it for
// subsequent calls.
func (r *Reader) LoadFooter(ctx context.Context) (Footer, error) {
	if r.footer != nil {
		return *r.footer, nil
	}
	total := r.backing.Size()
	if total < FooterSize {
		return Footer{}, fmt.Errorf("index %s is %d bytes, smaller than footer: %w", r.name, total, ErrFormat)
	}
	raw, err := r.backing.ReadAt(ctx, total-FooterSize, FooterSize)
	if err != nil {
		return Footer{}, fmt.Errorf("index %s read footer: %w", r.name, err)
	}
	f, err := decodeFooter(raw)
	if err != nil {
		return Footer{}, fmt.Errorf("index %s: %w", r.name, err)
	}
	if f.Size > uint64(total-FooterSize) {
		return Footer{}, fmt.Errorf("index %s footer claims %d entry bytes in a %d byte file: %w", r.name, f.Size, total, ErrFormat)
	}
	r.footer = &f
	return f, nil
}

// Reset rewinds the read cursor to the start of the entry region. The
// cached footer is kept as-is.
func (r *Reader) Reset() {
	r.pos = 0
}

// bytesAt returns n bytes of the entry region starting at off, refilling
// the read-ahead window from backing as needed.
func (r *Reader) bytesAt(ctx context.Context, off int64, n int) ([]byte, error) {
	end := int64(r.footer.Size)
	if off+int64(n) > end {
		return nil, fmt.Errorf("index %s entry extends past region end %d: %w", r.name, end, ErrFormat)
	}
	if off < r.winOff || off+int64(n) > r.winOff+int64(len(r.window)) {
		l := r.bufSize
		if l < n {
			l = n
		}
		if off+int64(l) > end {
			l = int(end - off)
		}
		w, err := r.backing.ReadAt(ctx, off, l)
		if err != nil {
			return nil, fmt.Errorf("index %s read at %d: %w", r.name, off, err)
		}
		r.window, r.winOff = w, off
	}
	s := off - r.winOff
	return r.window[s : s+int64(n)], nil
}

// next decodes the entry at the cursor and advances. io.EOF marks the end
// of the entry region.
func (r *Reader) next(ctx context.Context) (Entry, error) {
	if r.pos >= int64(r.footer.Size) {
		return Entry{}, io.EOF
	}
	hdr, err := r.bytesAt(ctx, r.pos, entrySizePrefixLen)
	if err != nil {
		return Entry{}, err
	}
	size := int(binary.BigEndian.Uint16(hdr))
	full, err := r.bytesAt(ctx, r.pos, entrySizePrefixLen+size)
	if err != nil {
		return Entry{}, err
	}
	e, n, err := DecodeEntry(full)
	if err != nil {
		return Entry{}, fmt.Errorf("index %s at %d: %w", r.name, r.pos, err)
	}
	r.pos += int64(n)
	return e, nil
}

// VerifyIntegrity re-scans the whole entry region, recomputing entry
// count, byte size and checksum, and compares them with the footer. It is
// the slow, trust-nothing check for paths where corruption is plausible.
// The cursor is rewound afterwards.
func (r *Reader) VerifyIntegrity(ctx context.Context) error {
	f, err := r.LoadFooter(ctx)
	if err != nil {
		return err
	}
	r.Reset()
	var (
		keys uint32
		size uint64
		crc  uint32
	)
	for {
		if r.pos >= int64(f.Size) {
			break
		}
		hdr, err := r.bytesAt(ctx, r.pos, entrySizePrefixLen)
		if err != nil {
			r.metrics.integrityFailed()
			return fmt.Errorf("index %s verify: %w", r.name, errors.Join(err, ErrIntegrity))
		}
		n := entrySizePrefixLen + int(binary.BigEndian.Uint16(hdr))
		full, err := r.bytesAt(ctx, r.pos, n)
		if err != nil {
			r.metrics.integrityFailed()
			return fmt.Errorf("index %s verify: %w", r.name, errors.Join(err, ErrIntegrity))
		}
		if _, _, err := DecodeEntry(full); err != nil {
			r.metrics.integrityFailed()
			return fmt.Errorf("index %s verify: %w", r.name, errors.Join(err, ErrIntegrity))
		}
		keys++
		size += uint64(n)
		crc = crc32.Update(crc, crcTable, full)
		r.pos += int64(n)
	}
	r.Reset()
	if keys != f.Keys || size != f.Size || crc != f.CRC {
		r.metrics.integrityFailed()
		return fmt.Errorf("index %s verify: footer %v, recomputed keys=%d size=%d crc=%x: %w",
			r.name, f, keys, size, crc, ErrIntegrity)
	}
	return nil
}

// Reducer accumulates a result over a stream of entries. Visit returns
// false to stop the scan early; Finish yields the accumulated result.
type Reducer[R any] interface {
	Visit(ctx context.Context, e Entry) (bool, error)
	Finish() R
}

// Consume streams entries from the reader's cursor in file order through
// the reducer until it signals completion, the timeout elapses, the
// context is canceled, or the entry region ends. On timeout the reducer's
// partial result is returned together with ErrScanTimeout so callers can
// treat the scan as incomplete rather than failed.
func Consume[R any](ctx context.Context, r *Reader, red Reducer[R], timeout time.Duration) (R, error) {
	var zero R
	if _, err := r.LoadFooter(ctx); err != nil {
		return zero, err
	}
	var deadline time.Time
	if timeout > NoTimeout {
		deadline = time.Now().Add(timeout)
	}
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			r.metrics.scanTimedOut()
			return red.Finish(), fmt.Errorf("index %s consume: %w", r.name, ErrScanTimeout)
		}
		e, err := r.next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return zero, err
		}
		cont, err := red.Visit(ctx, e)
		if err != nil {
			return zero, err
		}
		if !cont {
			break
		}
	}
	return red.Finish(), nil
}
