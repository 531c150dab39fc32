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

import "errors"

// ErrFormat is returned when the on-disk bytes do not match the index
// format (bad version, length/content mismatch, truncated footer). A
// caller seeing it must treat the index as absent and rebuild it from the
// segment.
var ErrFormat = errors.New("compacted index: invalid format")

// ErrIntegrity is returned by VerifyIntegrity when the recomputed entry
// count, size or checksum disagrees with the footer.
var ErrIntegrity = errors.New("compacted index: integrity mismatch")

// ErrClosed is returned for Index or Close calls on a closed writer.
var ErrClosed = errors.New("compacted index: writer closed")

// ErrScanTimeout is returned by Consume when the per-call timeout elapsed
// before the scan finished. The reducer's partial result is still
// returned alongside; the scan is incomplete, not corrupt.
var ErrScanTimeout = errors.New("compacted index: scan timed out")
