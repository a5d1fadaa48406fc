// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locations(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Location)
	}
	return out
}

func TestSortDedup_Metadata(t *testing.T) {
	records := []Record{
		{Location: "c", ModTime: t0.Add(2 * time.Hour), Size: 5},
		{Location: "a", ModTime: t0, Size: 5},
		{Location: "b", ModTime: t0, Size: 5},
		{Location: "d", ModTime: t0.Add(time.Hour), Size: 7},
	}

	got, err := SortDedup(context.Background(), records, UniqueMetadata)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "c"}, locations(got))
	assert.Equal(t, "c", records[0].Location, "input is not reordered")
}

func TestSortDedup_All(t *testing.T) {
	records := []Record{
		{Location: "b", ModTime: t0, Size: 5},
		{Location: "a", ModTime: t0, Size: 5},
	}

	got, err := SortDedup(context.Background(), records, UniqueAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, locations(got))
}

func TestSortDedup_Contents(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	writeAt(t, a, "one\n", t0)
	writeAt(t, b, "one\n", t0.Add(time.Hour))
	writeAt(t, c, "two\n", t0.Add(2*time.Hour))

	records := []Record{
		{Location: c, ModTime: t0.Add(2 * time.Hour), Size: 4},
		{Location: a, ModTime: t0, Size: 4},
		{Location: b, ModTime: t0.Add(time.Hour), Size: 4},
	}

	got, err := SortDedup(context.Background(), records, UniqueContents)
	require.NoError(t, err)
	assert.Equal(t, []string{a, c}, locations(got))
	assert.NotEmpty(t, got[0].Digest)
}

func TestSortDedup_ContentsMissingFile(t *testing.T) {
	records := []Record{{Location: filepath.Join(t.TempDir(), "gone"), ModTime: t0}}

	_, err := SortDedup(context.Background(), records, UniqueContents)
	assert.ErrorContains(t, err, "failed to hash")
}

func TestSortDedup_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SortDedup(ctx, []Record{{Location: "x", ModTime: t0}}, UniqueContents)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOmitDitto(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "snap")
	live := filepath.Join(dir, "live")
	writeAt(t, snap, "same\n", t0)
	writeAt(t, live, "same\n", t0.Add(time.Hour))

	older := Record{Location: "older", ModTime: t0.Add(-time.Hour), Size: 5}
	last := Record{Location: snap, ModTime: t0, Size: 5}

	t.Run("metadata match drops newest", func(t *testing.T) {
		got := OmitDitto([]Record{older, last}, Record{Location: live, ModTime: t0, Size: 5}, UniqueMetadata)
		assert.Equal(t, []string{"older"}, locations(got))
	})

	t.Run("metadata mismatch keeps newest", func(t *testing.T) {
		got := OmitDitto([]Record{older, last}, Record{Location: live, ModTime: t0.Add(time.Hour), Size: 5}, UniqueMetadata)
		assert.Len(t, got, 2)
	})

	t.Run("contents match drops newest", func(t *testing.T) {
		d, err := FileDigest(snap)
		require.NoError(t, err)
		withDigest := last
		withDigest.Digest = d
		got := OmitDitto([]Record{older, withDigest}, Record{Location: live, ModTime: t0.Add(time.Hour), Size: 5}, UniqueContents)
		assert.Equal(t, []string{"older"}, locations(got))
	})

	t.Run("all keeps everything", func(t *testing.T) {
		got := OmitDitto([]Record{older, last}, Record{Location: live, ModTime: t0, Size: 5}, UniqueAll)
		assert.Len(t, got, 2)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, OmitDitto(nil, Record{}, UniqueMetadata))
	})
}

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeAt(t, a, "x", t0)
	writeAt(t, b, "y", t0)

	da, err := FileDigest(a)
	require.NoError(t, err)
	db, err := FileDigest(b)
	require.NoError(t, err)

	assert.Len(t, da, 64)
	assert.NotEqual(t, da, db)
}
