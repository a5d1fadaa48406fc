// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package source

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zfsTree builds a dataset root with three ZFS snapshots of docs/notes.txt.
// snap-b is a metadata duplicate of snap-a; snap-c matches the live file.
func zfsTree(t *testing.T) (root, live string) {
	t.Helper()
	root = t.TempDir()
	snaps := filepath.Join(root, ".zfs", "snapshot")
	writeAt(t, filepath.Join(snaps, "snap-a", "docs", "notes.txt"), "v1\n", t0)
	writeAt(t, filepath.Join(snaps, "snap-b", "docs", "notes.txt"), "v1\n", t0)
	writeAt(t, filepath.Join(snaps, "snap-c", "docs", "notes.txt"), "v2\n", t0.Add(time.Hour))
	require.NoError(t, os.MkdirAll(filepath.Join(snaps, "snap-empty"), 0o755))

	live = filepath.Join(root, "docs", "notes.txt")
	writeAt(t, live, "v2\n", t0.Add(time.Hour))
	return root, live
}

func TestSnapDir_ZFS(t *testing.T) {
	root, live := zfsTree(t)
	snaps := filepath.Join(root, ".zfs", "snapshot")

	src := NewSnapDir()
	got, err := src.ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(snaps, "snap-a", "docs", "notes.txt")}, locations(got))

	last, ok, err := src.LastVersion(context.Background(), live)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, got[0], last)
}

func TestSnapDir_KeepDitto(t *testing.T) {
	root, live := zfsTree(t)
	snaps := filepath.Join(root, ".zfs", "snapshot")

	got, err := NewSnapDir(WithOmitDitto(false)).ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(snaps, "snap-a", "docs", "notes.txt"),
		filepath.Join(snaps, "snap-c", "docs", "notes.txt"),
	}, locations(got))
}

func TestSnapDir_UniqueAll(t *testing.T) {
	_, live := zfsTree(t)

	got, err := NewSnapDir(WithUniqueness(UniqueAll)).ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSnapDir_DeletedLiveFile(t *testing.T) {
	_, live := zfsTree(t)
	require.NoError(t, os.Remove(live))

	got, err := NewSnapDir().ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Len(t, got, 2, "no live file means nothing to omit")
}

func TestSnapDir_Snapper(t *testing.T) {
	root := t.TempDir()
	writeAt(t, filepath.Join(root, ".snapshots", "1", "snapshot", "etc.conf"), "a\n", t0)
	writeAt(t, filepath.Join(root, ".snapshots", "2", "snapshot", "etc.conf"), "b\n", t0.Add(time.Hour))
	writeAt(t, filepath.Join(root, ".snapshots", "2", "info.xml"), "<x/>", t0)
	live := filepath.Join(root, "etc.conf")
	writeAt(t, live, "c\n", t0.Add(2*time.Hour))

	got, err := NewSnapDir().ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, ".snapshots", "1", "snapshot", "etc.conf"),
		filepath.Join(root, ".snapshots", "2", "snapshot", "etc.conf"),
	}, locations(got))
}

func TestSnapDir_Alias(t *testing.T) {
	snapPoint := t.TempDir()
	localDir := t.TempDir()
	writeAt(t, filepath.Join(snapPoint, ".zfs", "snapshot", "s1", "a.txt"), "old\n", t0)
	live := filepath.Join(localDir, "a.txt")
	writeAt(t, live, "new\n", t0.Add(time.Hour))

	src := NewSnapDir(WithAlias(snapPoint, localDir))
	got, err := src.ListVersions(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(snapPoint, ".zfs", "snapshot", "s1", "a.txt")}, locations(got))

	_, err = src.ListVersions(context.Background(), filepath.Join(t.TempDir(), "elsewhere.txt"))
	assert.ErrorContains(t, err, "is not below local dir")
}

func TestSnapDir_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root, live := zfsTree(t)
	snap := filepath.Join(root, ".zfs", "snapshot", "snap-a")
	require.NoError(t, os.Chmod(snap, 0o000))
	t.Cleanup(func() { _ = os.Chmod(snap, 0o755) })

	_, err := NewSnapDir().ListVersions(context.Background(), live)
	assert.ErrorContains(t, err, "permission denied")
}

func TestSnapDir_Cancelled(t *testing.T) {
	_, live := zfsTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSnapDir().ListVersions(ctx, live)
	assert.ErrorIs(t, err, context.Canceled)
}
