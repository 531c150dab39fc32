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

// FooterSize is the fixed byte length of the trailing footer block:
// u32 keys | u64 size | u8 version | u32 crc.
const FooterSize = 4 + 8 + 1 + 4

// VersionKeyPrefixed marks indexes whose stored keys carry the batch type
// as their first byte. It is the only version in the defined set; the set
// is append-only and unknown values are a hard decode error.
const VersionKeyPrefixed uint8 = 1

// Footer summarizes a finalized index: entry count, byte length of the
// entry region (footer excluded) and a CRC over that region.
type Footer struct {
	Keys    uint32
	Size    uint64
	Version uint8
	CRC     uint32
}

func (f Footer) String() string {
	return fmt.Sprintf("{keys:%d size:%d version:%d crc:%x}", f.Keys, f.Size, f.Version, f.CRC)
}

func encodeFooter(f Footer) []byte {
	out := make([]byte, FooterSize)
	binary.BigEndian.PutUint32(out[0:4], f.Keys)
	binary.BigEndian.PutUint64(out[4:12], f.Size)
	out[12] = f.Version
	binary.BigEndian.PutUint32(out[13:17], f.CRC)
	return out
}

func decodeFooter(b []byte) (Footer, error) {
	if len(b) != FooterSize {
		return Footer{}, fmt.Errorf("footer is %d bytes, want %d: %w", len(b), FooterSize, ErrFormat)
	}
	f := Footer{
		Keys:    binary.BigEndian.Uint32(b[0:4]),
		Size:    binary.BigEndian.Uint64(b[4:12]),
		Version: b[12],
		CRC:     binary.BigEndian.Uint32(b[13:17]),
	}
	if f.Version != VersionKeyPrefixed {
		return Footer{}, fmt.Errorf("footer version %d unsupported: %w", f.Version, ErrFormat)
	}
	return f, nil
}
