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

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the compaction-index counters. A nil *Metrics disables
// instrumentation; writer and reader accept it as-is.
type Metrics struct {
	EntriesIndexed    prometheus.Counter
	BytesSpilled      prometheus.Counter
	KeysTruncated     prometheus.Counter
	IntegrityFailures prometheus.Counter
	ScanTimeouts      prometheus.Counter
}

// NewMetrics builds the counter set and registers it with reg when
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EntriesIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactix_entries_indexed_total",
			Help: "Entries appended to compaction indexes.",
		}),
		BytesSpilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactix_bytes_spilled_total",
			Help: "Bytes flushed from writer buffers to backing storage.",
		}),
		KeysTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactix_keys_truncated_total",
			Help: "Keys clipped to the maximum entry size.",
		}),
		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactix_integrity_failures_total",
			Help: "Indexes that failed footer or checksum verification.",
		}),
		ScanTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactix_scan_timeouts_total",
			Help: "Consume passes that hit their timeout before completion.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EntriesIndexed, m.BytesSpilled, m.KeysTruncated, m.IntegrityFailures, m.ScanTimeouts)
	}
	return m
}

func (m *Metrics) entryIndexed() {
	if m == nil {
		return
	}
	m.EntriesIndexed.Inc()
}

func (m *Metrics) bytesSpilled(n int) {
	if m == nil {
		return
	}
	m.BytesSpilled.Add(float64(n))
}

func (m *Metrics) keyTruncated() {
	if m == nil {
		return
	}
	m.KeysTruncated.Inc()
}

func (m *Metrics) integrityFailed() {
	if m == nil {
		return
	}
	m.IntegrityFailures.Inc()
}

func (m *Metrics) scanTimedOut() {
	if m == nil {
		return
	}
	m.ScanTimeouts.Inc()
}
