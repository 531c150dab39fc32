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
	"os"
	"sync"
)

// FileBacking stores index bytes in a local file.
type FileBacking struct {
	mu       sync.Mutex
	f        *os.File
	size     int64
	readOnly bool
}

// CreateFileBacking creates (or truncates) a file for writing a new
// index.
func CreateFileBacking(path string) (*FileBacking, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &FileBacking{f: f}, nil
}

// OpenFileBacking opens an existing index file read-only.
func OpenFileBacking(path string) (*FileBacking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &FileBacking{f: f, size: st.Size(), readOnly: true}, nil
}

func (b *FileBacking) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return fmt.Errorf("append to read-only file %s", b.f.Name())
	}
	n, err := b.f.WriteAt(p, b.size)
	b.size += int64(n)
	if err != nil {
		return fmt.Errorf("append %s: %w", b.f.Name(), err)
	}
	return nil
}

func (b *FileBacking) ReadAt(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if _, err := b.f.ReadAt(out, offset); err != nil {
		return nil, fmt.Errorf("read %s at %d: %w", b.f.Name(), offset, err)
	}
	return out, nil
}

func (b *FileBacking) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *FileBacking) Close() error {
	return b.f.Close()
}

// Sync flushes file contents to stable storage.
func (b *FileBacking) Sync() error {
	return b.f.Sync()
}
