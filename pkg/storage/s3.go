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
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config describes connection details for AWS S3 or compatible
// endpoints.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	KMSKeyARN       string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Backing stores one index as a single S3 object. S3 has no append
// primitive, so writes are staged in memory and uploaded as one object on
// Close; reads use ranged GetObject calls.
type S3Backing struct {
	mu       sync.Mutex
	bucket   string
	key      string
	kmsKey   string
	api      s3API
	staged   bytes.Buffer
	size     int64
	readOnly bool
	closed   bool
}

// ErrObjectMissing is returned when the index object does not exist.
var ErrObjectMissing = errors.New("index object missing")

func newS3API(ctx context.Context, cfg S3Config) (s3API, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					PartitionID:   "aws",
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(customResolver))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// CreateS3Backing prepares a write-mode backing for a new index object.
func CreateS3Backing(ctx context.Context, cfg S3Config, key string) (*S3Backing, error) {
	api, err := newS3API(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newS3BackingWithAPI(cfg.Bucket, key, cfg.KMSKeyARN, api), nil
}

// OpenS3Backing opens an existing index object for reading, resolving
// its size up front.
func OpenS3Backing(ctx context.Context, cfg S3Config, key string) (*S3Backing, error) {
	api, err := newS3API(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return openS3BackingWithAPI(ctx, cfg.Bucket, key, api)
}

func newS3BackingWithAPI(bucket, key, kmsKey string, api s3API) *S3Backing {
	return &S3Backing{bucket: bucket, key: key, kmsKey: kmsKey, api: api}
}

func openS3BackingWithAPI(ctx context.Context, bucket, key string, api s3API) (*S3Backing, error) {
	head, err := api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey" {
				return nil, fmt.Errorf("head object %s: %w", key, ErrObjectMissing)
			}
		}
		return nil, fmt.Errorf("head object %s: %w", key, err)
	}
	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	return &S3Backing{bucket: bucket, key: key, api: api, size: size, readOnly: true}, nil
}

func (b *S3Backing) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return fmt.Errorf("append to read-only object %s", b.key)
	}
	if b.closed {
		return fmt.Errorf("append to closed object %s", b.key)
	}
	b.staged.Write(p)
	b.size += int64(len(p))
	return nil
}

func (b *S3Backing) ReadAt(ctx context.Context, offset int64, length int) ([]byte, error) {
	b.mu.Lock()
	if !b.readOnly {
		// Write mode: serve from the staged buffer.
		data := b.staged.Bytes()
		if offset < 0 || offset+int64(length) > int64(len(data)) {
			b.mu.Unlock()
			return nil, fmt.Errorf("staged object %s range %d+%d outside %d bytes", b.key, offset, length, len(data))
		}
		out := append([]byte(nil), data[offset:offset+int64(length)]...)
		b.mu.Unlock()
		return out, nil
	}
	b.mu.Unlock()

	rng := &ByteRange{Start: offset, End: offset + int64(length) - 1}
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  rng.headerValue(),
	}
	resp, err := b.api.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", b.key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", b.key, err)
	}
	if len(data) != length {
		return nil, fmt.Errorf("ranged read %s returned %d bytes, want %d", b.key, len(data), length)
	}
	return data, nil
}

func (b *S3Backing) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Close uploads the staged bytes as one object in write mode. Read mode
// closes without I/O.
func (b *S3Backing) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.readOnly {
		b.closed = true
		return nil
	}
	b.closed = true
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Body:   bytes.NewReader(b.staged.Bytes()),
	}
	if b.kmsKey != "" {
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(b.kmsKey)
	}
	if _, err := b.api.PutObject(context.Background(), input); err != nil {
		return fmt.Errorf("put object %s: %w", b.key, err)
	}
	return nil
}
