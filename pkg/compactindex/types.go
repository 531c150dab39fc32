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

// Package compactindex implements the per-segment compaction index: a
// side file recording every record key seen in a log segment together
// with its logical offset, used to decide which records survive
// key-based compaction.
package compactindex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BatchType tags the kind of record a key came from. The tag is stored as
// the first byte of every indexed key so identical raw keys from different
// batch kinds never collide during deduplication. Values outside the named
// set are accepted unchanged.
type BatchType uint8

const (
	BatchTypeData          BatchType = 1
	BatchTypeConfiguration BatchType = 2
	BatchTypeControl       BatchType = 3
)

const (
	entrySizePrefixLen = 2
	maxEntrySize       = math.MaxUint16

	// MaxKeySize bounds the stored batch-type-prefixed key. It reserves
	// room for the type byte and two worst-case varints so the entry
	// payload always fits the u16 size prefix. Longer keys are clipped,
	// never rejected: compaction needs a stable key, not the full one.
	MaxKeySize = maxEntrySize - 2*binary.MaxVarintLen64 - 1
)

// Entry is one decoded index record. Key holds the batch-type-prefixed
// form exactly as stored on disk.
type Entry struct {
	Type   BatchType
	Key    []byte
	Offset int64
	Delta  int64
}

// RecordKey strips the batch-type prefix and returns the record's own key
// bytes (possibly clipped if the original entry was truncated).
func (e Entry) RecordKey() []byte {
	if len(e.Key) == 0 {
		return nil
	}
	return e.Key[1:]
}

func (e Entry) String() string {
	return fmt.Sprintf("{type:%d offset:%d delta:%d key:%d bytes}", e.Type, e.Offset, e.Delta, len(e.Key))
}
