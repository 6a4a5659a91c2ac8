// Package s3 implements a ZarrFS store on Amazon S3 or S3-compatible
// object storage.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/zarrfs/pkg/store"
)

// S3Store implements store.Store on an S3 bucket.
//
// Key Design:
//   - Store keys map to object keys under an optional key prefix
//   - The resulting bucket layout is the canonical Zarr/N5 structure and
//     stays readable by other Zarr implementations
//   - Container nodes are materialized with zero-byte marker objects,
//     since S3 has no directories
//
// S3 Characteristics:
//   - Whole-object reads and writes only (a chunk is one object)
//   - Read-after-write consistency per current S3 semantics; racing
//     writers to the same key are last-write-wins
//   - Custom endpoints supported for MinIO, Localstack and similar
//
// Thread Safety:
// The AWS SDK client is safe for concurrent use; so is this store.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   store.Metrics
}

// S3StoreConfig contains configuration for an S3 store.
type S3StoreConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the bucket name. It must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys, e.g.
	// "arrays/" puts a key "lab/raw/.zarray" at "arrays/lab/raw/.zarray".
	KeyPrefix string
}

// NewS3Store creates an S3-backed store and verifies bucket access.
// metrics may be nil.
func NewS3Store(ctx context.Context, cfg S3StoreConfig, metrics store.Metrics) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	s := &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
		metrics:   store.EnsureMetrics(metrics),
	}

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", s.bucket, err)
	}

	return s, nil
}

func (s *S3Store) objectKey(key string) string {
	return s.keyPrefix + key
}

func (s *S3Store) observe(op string, start time.Time, bytes int, err error) {
	s.metrics.ObserveOp(op, time.Since(start), bytes, err)
}

func (s *S3Store) Get(ctx context.Context, key string) (data []byte, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, len(data), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("get %s: %w", key, store.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, key string, value []byte) (err error) {
	start := time.Now()
	defer func() { s.observe("put", start, len(value), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("put: %w", store.ErrInvalidKey)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Has(ctx context.Context, key string) (exists bool, err error) {
	start := time.Now()
	defer func() { s.observe("has", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	// S3 deletes are blind; probe first to honor the sentinel. The probe
	// stays inside this operation so metrics record exactly one "delete".
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("delete %s: %w", key, store.ErrKeyNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) (keys []string, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, 0, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix))
		}
	}
	return keys, nil
}

func (s *S3Store) CreateNode(ctx context.Context, path string) error {
	return s.Put(ctx, nodeMarker(path), nil)
}

func (s *S3Store) NodeExists(ctx context.Context, path string) (bool, error) {
	exists, err := s.Has(ctx, nodeMarker(path))
	if err != nil || exists {
		return exists, err
	}

	// No marker: the node still exists if any object lives under it.
	prefix := path + "/"
	if path == "" {
		prefix = ""
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.objectKey(prefix)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("node exists %s: %w", path, err)
	}
	return len(out.Contents) > 0, nil
}

func nodeMarker(path string) string {
	if path == "" {
		return store.NodeMarkerKey
	}
	return path + "/" + store.NodeMarkerKey
}
