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
	"errors"
	"testing"
)

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{Keys: 7, Size: 12345678901, Version: VersionKeyPrefixed, CRC: 0xdeadbeef}
	raw := encodeFooter(f)
	if len(raw) != FooterSize {
		t.Fatalf("footer is %d bytes, want %d", len(raw), FooterSize)
	}
	got, err := decodeFooter(raw)
	if err != nil {
		t.Fatalf("decodeFooter: %v", err)
	}
	if got != f {
		t.Fatalf("round trip mismatch: %v != %v", got, f)
	}
}

func TestFooterUnknownVersion(t *testing.T) {
	raw := encodeFooter(Footer{Keys: 1, Size: 10, Version: VersionKeyPrefixed, CRC: 1})
	raw[12] = 9
	if _, err := decodeFooter(raw); !errors.Is(err, ErrFormat) {
		t.Fatalf("unknown version: got %v", err)
	}
}

func TestFooterBadLength(t *testing.T) {
	if _, err := decodeFooter(make([]byte, FooterSize-1)); !errors.Is(err, ErrFormat) {
		t.Fatalf("short footer: got %v", err)
	}
}
