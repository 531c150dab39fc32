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
	"encoding/binary"
	"errors"
	"testing"
)

func testKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(i % 251)
	}
	return key
}

func TestEntryRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		bt     BatchType
		key    []byte
		offset int64
		delta  int64
	}{
		{"data", BatchTypeData, []byte("user-42"), 42, 66},
		{"config", BatchTypeConfiguration, testKey(1024), 1 << 40, 0},
		{"control", BatchTypeControl, []byte{0x00}, 0, 127},
		{"unnamed type", BatchType(77), testKey(20), 9999, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := EncodeEntry(tc.bt, tc.key, tc.offset, tc.delta)
			e, n, err := DecodeEntry(raw)
			if err != nil {
				t.Fatalf("DecodeEntry: %v", err)
			}
			if n != len(raw) {
				t.Fatalf("consumed %d of %d bytes", n, len(raw))
			}
			if e.Type != tc.bt || e.Offset != tc.offset || e.Delta != tc.delta {
				t.Fatalf("decoded %v, want type=%d offset=%d delta=%d", e, tc.bt, tc.offset, tc.delta)
			}
			if e.Key[0] != byte(tc.bt) {
				t.Fatalf("stored key not batch-type prefixed: %x", e.Key[0])
			}
			if !bytes.Equal(e.RecordKey(), tc.key) {
				t.Fatalf("record key mismatch")
			}
		})
	}
}

func TestEntryEncodedSize(t *testing.T) {
	// 2 (prefix) + 1 (type) + 1 (varint 42) + 2 (varint 66) + 1025 (prefixed key).
	raw := EncodeEntry(BatchTypeData, testKey(1024), 42, 66)
	if len(raw) != 1031 {
		t.Fatalf("entry is %d bytes, want 1031", len(raw))
	}
	declared := int(binary.BigEndian.Uint16(raw))
	if declared != len(raw)-2 {
		t.Fatalf("declared size %d, payload %d", declared, len(raw)-2)
	}
}

func TestEntryTruncation(t *testing.T) {
	key := testKey(1 << 20)
	raw := EncodeEntry(BatchTypeData, key, 42, 66)
	e, _, err := DecodeEntry(raw)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if len(e.Key) != MaxKeySize {
		t.Fatalf("stored key %d bytes, want %d", len(e.Key), MaxKeySize)
	}
	prefixed := append([]byte{byte(BatchTypeData)}, key...)
	if !bytes.Equal(e.Key, prefixed[:MaxKeySize]) {
		t.Fatalf("truncated key is not the leading %d prefixed bytes", MaxKeySize)
	}
	// Deterministic: encoding again yields identical bytes.
	if !bytes.Equal(raw, EncodeEntry(BatchTypeData, key, 42, 66)) {
		t.Fatalf("truncation not deterministic")
	}
}

func TestEntryDecodeErrors(t *testing.T) {
	if _, _, err := DecodeEntry([]byte{0x01}); !errors.Is(err, ErrFormat) {
		t.Fatalf("short header: got %v", err)
	}

	raw := EncodeEntry(BatchTypeData, []byte("k"), 1, 2)
	if _, _, err := DecodeEntry(raw[:len(raw)-1]); !errors.Is(err, ErrFormat) {
		t.Fatalf("short payload: got %v", err)
	}

	// Declared length stops inside the varints: no room left for a key.
	bad := append([]byte(nil), raw...)
	binary.BigEndian.PutUint16(bad, 2)
	if _, _, err := DecodeEntry(bad); !errors.Is(err, ErrFormat) {
		t.Fatalf("length mismatch: got %v", err)
	}

	if _, _, err := DecodeEntry([]byte{0x00, 0x00}); !errors.Is(err, ErrFormat) {
		t.Fatalf("empty payload: got %v", err)
	}
}
