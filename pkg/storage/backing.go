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

// Package storage provides the backing byte sinks/sources compaction
// indexes are written to and read from: local files, memory buffers and
// S3 objects.
package storage

import (
	"context"
	"fmt"
)

// ByteRange represents an inclusive byte range for reads.
type ByteRange struct {
	Start int64
	End   int64
}

func (br *ByteRange) headerValue() *string {
	if br == nil {
		return nil
	}
	val := fmt.Sprintf("bytes=%d-%d", br.Start, br.End)
	return &val
}

// Backing is the byte sink/source abstraction the index writer and
// reader operate on. Writes are append-only; reads are positional.
// Errors from the underlying store propagate unchanged.
type Backing interface {
	Append(ctx context.Context, p []byte) error
	ReadAt(ctx context.Context, offset int64, length int) ([]byte, error)
	Size() int64
	Close() error
}
