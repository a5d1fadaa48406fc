// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"fmt"
	"net/url"
	"strings"
)

// S3Scheme prefixes S3 object locations.
const S3Scheme = "s3://"

// S3Object names one version of an S3 object.
type S3Object struct {
	Bucket    string
	Key       string
	VersionID string
}

// String renders the object as s3://bucket/key?versionId=ID.
func (o S3Object) String() string {
	u := url.URL{Scheme: "s3", Host: o.Bucket, Path: "/" + o.Key}
	if o.VersionID != "" {
		u.RawQuery = url.Values{"versionId": []string{o.VersionID}}.Encode()
	}
	return u.String()
}

// IsS3 reports whether a location names an S3 object.
func IsS3(loc string) bool {
	return strings.HasPrefix(loc, S3Scheme)
}

// ParseS3 parses an s3:// location.
func ParseS3(loc string) (S3Object, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return S3Object{}, fmt.Errorf("bad s3 location %q: %w", loc, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return S3Object{}, fmt.Errorf("bad s3 location %q: want s3://bucket/key", loc)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return S3Object{}, fmt.Errorf("bad s3 location %q: missing key", loc)
	}
	return S3Object{
		Bucket:    u.Host,
		Key:       key,
		VersionID: u.Query().Get("versionId"),
	}, nil
}
