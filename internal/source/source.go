// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"time"
)

// Record identifies one historical version of a file.
type Record struct {
	// Location is resolvable by location.Reader: a local path or an s3:// URL.
	Location string
	// ModTime orders records. It is the modify time of the captured file.
	ModTime time.Time
	Size    int64
	// Digest is an optional content signature, e.g. an S3 ETag.
	Digest string
}

// SameAs reports whether two records describe the same content according to
// the metadata they carry: equal digests, or equal non-zero modify time and
// equal size.
func (r Record) SameAs(o Record) bool {
	if r.Digest != "" && o.Digest != "" {
		return r.Digest == o.Digest
	}
	if r.ModTime.IsZero() || o.ModTime.IsZero() {
		return false
	}
	return r.ModTime.Equal(o.ModTime) && r.Size == o.Size
}

// Source is the version lister contract. ListVersions returns records oldest
// first; an empty slice means no history and is not an error. LastVersion
// returns the most recent record, if any.
type Source interface {
	ListVersions(ctx context.Context, path string) ([]Record, error)
	LastVersion(ctx context.Context, path string) (Record, bool, error)
}

// Uniqueness selects how versions are deduplicated.
type Uniqueness int

const (
	// UniqueMetadata collapses versions with equal modify time and size.
	UniqueMetadata Uniqueness = iota
	// UniqueContents collapses adjacent versions with equal content digests.
	UniqueContents
	// UniqueAll keeps every version found.
	UniqueAll
)

// Uniquenesses lists the accepted --uniqueness values.
var Uniquenesses = []string{"metadata", "contents", "all"}

// ParseUniqueness maps a flag value to a Uniqueness.
func ParseUniqueness(s string) (Uniqueness, error) {
	switch s {
	case "", "metadata":
		return UniqueMetadata, nil
	case "contents":
		return UniqueContents, nil
	case "all":
		return UniqueAll, nil
	}
	return UniqueMetadata, fmt.Errorf("unknown uniqueness %q, must be one of %v", s, Uniquenesses)
}

func (u Uniqueness) String() string {
	if int(u) < len(Uniquenesses) {
		return Uniquenesses[u]
	}
	return "unknown"
}

// lastOf returns the newest record of an oldest-first slice.
func lastOf(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	return records[len(records)-1], true
}
