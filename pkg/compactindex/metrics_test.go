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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/novatechflow/compactix/pkg/storage"
)

func TestWriterMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	w, err := NewWriter("dummy", storage.NewMemoryBacking(), nil, 1024, m)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Index(ctx, BatchTypeData, testKey(10), 0, 0); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := w.Index(ctx, BatchTypeData, testKey(1<<20), 1, 0); err != nil {
		t.Fatalf("Index oversized: %v", err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := testutil.ToFloat64(m.EntriesIndexed); got != 2 {
		t.Fatalf("entries indexed %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.KeysTruncated); got != 1 {
		t.Fatalf("keys truncated %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesSpilled); got == 0 {
		t.Fatalf("no spilled bytes recorded")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.entryIndexed()
	m.bytesSpilled(10)
	m.keyTruncated()
	m.integrityFailed()
	m.scanTimedOut()
}
