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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	objects map[string][]byte
	gets    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	if params.Range != nil {
		var start, end int64
		if _, err := fmt.Sscanf(*params.Range, "bytes=%d-%d", &start, &end); err != nil {
			return nil, fmt.Errorf("bad range %q: %w", *params.Range, err)
		}
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		if start < 0 || start > end {
			return nil, &smithy.GenericAPIError{Code: "InvalidRange"}
		}
		data = data[start : end+1]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func TestS3BackingWriteReadCycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()

	w := newS3BackingWithAPI("bucket", "topic/0/00000000.compaction_index", "", api)
	if err := w.Append(ctx, []byte("hello ")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(ctx, []byte("world")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if w.Size() != 11 {
		t.Fatalf("staged size %d, want 11", w.Size())
	}
	// Write mode serves reads from the staged buffer, no GETs.
	got, err := w.ReadAt(ctx, 0, 5)
	if err != nil {
		t.Fatalf("staged ReadAt: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) || api.gets != 0 {
		t.Fatalf("staged read %q (gets=%d)", got, api.gets)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bytes.Equal(api.objects["topic/0/00000000.compaction_index"], []byte("hello world")) {
		t.Fatalf("object not uploaded on close")
	}

	r, err := openS3BackingWithAPI(ctx, "bucket", "topic/0/00000000.compaction_index", api)
	if err != nil {
		t.Fatalf("openS3BackingWithAPI: %v", err)
	}
	if r.Size() != 11 {
		t.Fatalf("remote size %d, want 11", r.Size())
	}
	got, err = r.ReadAt(ctx, 6, 5)
	if err != nil {
		t.Fatalf("ranged ReadAt: %v", err)
	}
	if !bytes.Equal(got, []byte("world")) {
		t.Fatalf("ranged read %q", got)
	}
	if err := r.Append(ctx, []byte("x")); err == nil {
		t.Fatalf("append to read-only object succeeded")
	}
}

func TestS3BackingMissingObject(t *testing.T) {
	ctx := context.Background()
	if _, err := openS3BackingWithAPI(ctx, "bucket", "nope", newFakeS3()); !errors.Is(err, ErrObjectMissing) {
		t.Fatalf("expected ErrObjectMissing, got %v", err)
	}
}
