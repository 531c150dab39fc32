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
	"context"
	"fmt"
	"sync"
)

// MemoryBacking is an in-memory Backing for development/testing.
type MemoryBacking struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewMemoryBacking returns an empty in-memory backing.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{}
}

func (m *MemoryBacking) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("memory backing closed")
	}
	m.data = append(m.data, p...)
	return nil
}

func (m *MemoryBacking) ReadAt(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("memory backing closed")
	}
	if offset < 0 || offset+int64(length) > int64(len(m.data)) {
		return nil, fmt.Errorf("memory backing range %d+%d outside %d bytes", offset, length, len(m.data))
	}
	return append([]byte(nil), m.data[offset:offset+int64(length)]...), nil
}

func (m *MemoryBacking) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.data))
}

func (m *MemoryBacking) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Bytes returns a copy of the accumulated contents (for tests).
func (m *MemoryBacking) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
