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
	"encoding/binary"
	"fmt"
)

// EncodeEntry serializes one index record:
//
//	u16 encoded_size | u8 batch_type | varint offset | varint delta | prefixed key
//
// encoded_size counts everything after the 2-byte prefix. The key is
// stored with the batch type as its leading byte and clipped to
// MaxKeySize, so the result always fits the u16 prefix.
func EncodeEntry(bt BatchType, key []byte, offset, delta int64) []byte {
	prefixed := make([]byte, 0, len(key)+1)
	prefixed = append(prefixed, byte(bt))
	prefixed = append(prefixed, key...)
	if len(prefixed) > MaxKeySize {
		prefixed = prefixed[:MaxKeySize]
	}

	payload := make([]byte, 0, 1+2*binary.MaxVarintLen64+len(prefixed))
	payload = append(payload, byte(bt))
	payload = binary.AppendVarint(payload, offset)
	payload = binary.AppendVarint(payload, delta)
	payload = append(payload, prefixed...)

	out := make([]byte, entrySizePrefixLen, entrySizePrefixLen+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	return append(out, payload...)
}

// keyTruncated reports whether EncodeEntry would clip this key.
func keyTruncated(key []byte) bool {
	return len(key)+1 > MaxKeySize
}

// DecodeEntry parses one entry from the front of b and returns it along
// with the total bytes consumed (prefix included). The declared length
// must cover the fixed fields and both varints exactly up to the key;
// anything else is a format error.
func DecodeEntry(b []byte) (Entry, int, error) {
	if len(b) < entrySizePrefixLen {
		return Entry{}, 0, fmt.Errorf("entry header short (%d bytes): %w", len(b), ErrFormat)
	}
	size := int(binary.BigEndian.Uint16(b))
	if len(b) < entrySizePrefixLen+size {
		return Entry{}, 0, fmt.Errorf("entry declares %d bytes, %d available: %w", size, len(b)-entrySizePrefixLen, ErrFormat)
	}
	payload := b[entrySizePrefixLen : entrySizePrefixLen+size]
	if len(payload) < 1 {
		return Entry{}, 0, fmt.Errorf("entry payload empty: %w", ErrFormat)
	}
	bt := BatchType(payload[0])
	offset, n1 := binary.Varint(payload[1:])
	if n1 <= 0 {
		return Entry{}, 0, fmt.Errorf("entry offset varint invalid: %w", ErrFormat)
	}
	delta, n2 := binary.Varint(payload[1+n1:])
	if n2 <= 0 {
		return Entry{}, 0, fmt.Errorf("entry delta varint invalid: %w", ErrFormat)
	}
	keyStart := 1 + n1 + n2
	if size-keyStart < 1 {
		return Entry{}, 0, fmt.Errorf("entry length %d does not cover key: %w", size, ErrFormat)
	}
	key := append([]byte(nil), payload[keyStart:]...)
	return Entry{Type: bt, Key: key, Offset: offset, Delta: delta}, entrySizePrefixLen + size, nil
}
