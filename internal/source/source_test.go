// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// writeAt writes content to name and stamps it with mtime.
func writeAt(t *testing.T, name, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(name, mtime, mtime))
}

func TestRecordSameAs(t *testing.T) {
	tests := []struct {
		name string
		a, b Record
		want bool
	}{
		{"equal digests", Record{Digest: "x", Size: 1}, Record{Digest: "x", Size: 2}, true},
		{"different digests", Record{Digest: "x", ModTime: t0}, Record{Digest: "y", ModTime: t0}, false},
		{"equal metadata", Record{ModTime: t0, Size: 3}, Record{ModTime: t0, Size: 3}, true},
		{"different size", Record{ModTime: t0, Size: 3}, Record{ModTime: t0, Size: 4}, false},
		{"zero time", Record{Size: 3}, Record{Size: 3}, false},
		{"one digest falls back to metadata", Record{Digest: "x", ModTime: t0, Size: 1}, Record{ModTime: t0, Size: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameAs(tt.b))
		})
	}
}

func TestParseUniqueness(t *testing.T) {
	tests := []struct {
		in      string
		want    Uniqueness
		wantErr bool
	}{
		{"", UniqueMetadata, false},
		{"metadata", UniqueMetadata, false},
		{"contents", UniqueContents, false},
		{"all", UniqueAll, false},
		{"bogus", UniqueMetadata, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUniqueness(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
	assert.Equal(t, "unknown", Uniqueness(42).String())
}
