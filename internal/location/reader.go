// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tfctl/snapdiff/internal/cacheutil"
	"github.com/tfctl/snapdiff/internal/log"
)

// GetObjectAPI is the slice of the S3 client the Reader needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// Reader fetches the bytes behind a location. Local paths are read from disk.
// s3:// locations are fetched through a client built on first use and, when
// Cache is set, stored there keyed by the full location.
type Reader struct {
	NewS3 func(ctx context.Context) (GetObjectAPI, error)
	Cache *cacheutil.Store

	once   sync.Once
	client GetObjectAPI
	err    error
}

// ReadAll returns the full contents of the location.
func (r *Reader) ReadAll(ctx context.Context, name string) ([]byte, error) {
	if !IsS3(name) {
		return os.ReadFile(name)
	}

	obj, err := ParseS3(name)
	if err != nil {
		return nil, err
	}

	sub := []string{"s3", obj.Bucket}
	if obj.VersionID != "" {
		if entry, ok := r.Cache.Read(sub, name); ok {
			return entry.Data, nil
		}
	}

	client, err := r.s3(ctx)
	if err != nil {
		return nil, err
	}

	input := &s3v2.GetObjectInput{
		Bucket: awsv2.String(obj.Bucket),
		Key:    awsv2.String(obj.Key),
	}
	if obj.VersionID != "" {
		input.VersionId = awsv2.String(obj.VersionID)
	}

	result, err := client.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	// Only versioned objects are immutable.
	if obj.VersionID != "" {
		if err := r.Cache.Write(sub, name, data); err != nil {
			log.WithError(err).Warn("error writing to cache")
		}
	}
	return data, nil
}

func (r *Reader) s3(ctx context.Context) (GetObjectAPI, error) {
	r.once.Do(func() {
		if r.NewS3 == nil {
			r.err = fmt.Errorf("no S3 client configured")
			return
		}
		r.client, r.err = r.NewS3(ctx)
	})
	return r.client, r.err
}
