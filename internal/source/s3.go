// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tfctl/snapdiff/internal/location"
	"github.com/tfctl/snapdiff/internal/log"
)

// S3 treats the object versions of a versioned bucket as snapshots. The live
// file Root/rel maps to the key Prefix/rel in Bucket.
type S3 struct {
	Client    s3v2.ListObjectVersionsAPIClient
	Bucket    string
	Prefix    string
	Root      string
	OmitDitto bool
}

// Key returns the object key for a live path.
func (s *S3) Key(livePath string) (string, error) {
	rel, err := filepath.Rel(s.Root, livePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not below s3 root %s", livePath, s.Root)
	}
	return path.Join(s.Prefix, filepath.ToSlash(rel)), nil
}

// ListVersions implements Source. Delete markers and versions of other keys
// sharing the prefix are ignored.
func (s *S3) ListVersions(ctx context.Context, livePath string) ([]Record, error) {
	key, err := s.Key(livePath)
	if err != nil {
		return nil, err
	}

	paginator := s3v2.NewListObjectVersionsPaginator(s.Client, &s3v2.ListObjectVersionsInput{
		Bucket: awsv2.String(s.Bucket),
		Prefix: awsv2.String(key),
	})

	var records []Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list object versions: %w", err)
		}
		for _, v := range page.Versions {
			if v.Key == nil || *v.Key != key {
				if v.Key != nil {
					log.Tracef("throwing away %s", *v.Key)
				}
				continue
			}
			if v.VersionId == nil || v.LastModified == nil {
				continue
			}
			records = append(records, Record{
				Location: location.S3Object{Bucket: s.Bucket, Key: key, VersionID: *v.VersionId}.String(),
				ModTime:  *v.LastModified,
				Size:     awsv2.ToInt64(v.Size),
				Digest:   strings.Trim(awsv2.ToString(v.ETag), `"`),
			})
		}
	}
	log.Debugf("s3 versions: key=%s count=%d", key, len(records))

	// Records all carry an ETag, so contents dedup never touches the network.
	records, err = SortDedup(ctx, records, UniqueContents)
	if err != nil {
		return nil, err
	}

	if s.OmitDitto {
		records = s.omitDitto(records, livePath)
	}
	return records, nil
}

// LastVersion implements Source.
func (s *S3) LastVersion(ctx context.Context, livePath string) (Record, bool, error) {
	records, err := s.ListVersions(ctx, livePath)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := lastOf(records)
	return rec, ok, nil
}

// omitDitto drops the newest version when its ETag is the MD5 of the live
// file. Multipart ETags (containing '-') are never MD5s and never match.
func (s *S3) omitDitto(records []Record, livePath string) []Record {
	last, ok := lastOf(records)
	if !ok || strings.Contains(last.Digest, "-") {
		return records
	}
	sum, err := md5File(livePath)
	if err != nil {
		return records
	}
	if sum == last.Digest {
		log.Debugf("omitting version identical to live file: %s", last.Location)
		return records[:len(records)-1]
	}
	return records
}

func md5File(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
