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

// Package resources arbitrates the process-wide memory budget shared by
// concurrent compaction jobs. Writers and reducers lease their buffer
// budgets here at construction and release them when done; the lease
// holder enforces the budget locally.
package resources

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted is returned when an acquisition would exceed the total
// budget. Callers retry or back off; the coordinator never queues.
var ErrExhausted = errors.New("resources: memory budget exhausted")

// Coordinator tracks outstanding memory leases against a fixed total.
// A total <= 0 means unlimited.
type Coordinator struct {
	mu    sync.Mutex
	total int64
	used  int64
}

// NewCoordinator creates a coordinator with totalBytes of budget.
func NewCoordinator(totalBytes int64) *Coordinator {
	return &Coordinator{total: totalBytes}
}

// AcquireMemory reserves n bytes, failing with ErrExhausted when the
// remaining budget is too small.
func (c *Coordinator) AcquireMemory(n int64) (*Lease, error) {
	if n < 0 {
		return nil, fmt.Errorf("acquire %d bytes: negative size", n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.total > 0 && c.used+n > c.total {
		return nil, fmt.Errorf("acquire %d bytes with %d of %d in use: %w", n, c.used, c.total, ErrExhausted)
	}
	c.used += n
	return &Lease{c: c, n: n}, nil
}

// InUse returns the currently leased byte count.
func (c *Coordinator) InUse() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Lease is a reserved slice of the memory budget. Release returns it;
// releasing more than once is a no-op.
type Lease struct {
	c    *Coordinator
	n    int64
	once sync.Once
}

// Bytes returns the leased size.
func (l *Lease) Bytes() int64 { return l.n }

// Release returns the leased bytes to the coordinator.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.c.mu.Lock()
		l.c.used -= l.n
		l.c.mu.Unlock()
	})
}
