// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tfctl/snapdiff/internal/log"
)

const (
	// ZFSSnapshotDir is the hidden per-dataset snapshot directory.
	ZFSSnapshotDir = ".zfs/snapshot"
	// SnapperDir holds numbered snapper snapshots, each with a "snapshot" subvolume.
	SnapperDir = ".snapshots"
)

// SnapDir finds versions by looking inside snapshot directories on the local
// filesystem. Without an alias, the dataset root is the nearest ancestor of
// the file that has a ZFS or snapper snapshot directory.
type SnapDir struct {
	Uniqueness Uniqueness
	OmitDitto  bool
	// SnapPoint and LocalDir, when both set, declare that the dataset root
	// SnapPoint holds the snapshots for files below LocalDir.
	SnapPoint string
	LocalDir  string
}

// SnapDirOption configures a SnapDir.
type SnapDirOption func(*SnapDir)

// NewSnapDir returns a SnapDir deduplicating by metadata and omitting the
// version identical to the live file.
func NewSnapDir(options ...SnapDirOption) *SnapDir {
	s := &SnapDir{Uniqueness: UniqueMetadata, OmitDitto: true}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithUniqueness sets the deduplication rule.
func WithUniqueness(u Uniqueness) SnapDirOption {
	return func(s *SnapDir) { s.Uniqueness = u }
}

// WithOmitDitto toggles dropping the newest version when it matches the live file.
func WithOmitDitto(omit bool) SnapDirOption {
	return func(s *SnapDir) { s.OmitDitto = omit }
}

// WithAlias maps the dataset root snapPoint onto the live directory localDir.
func WithAlias(snapPoint, localDir string) SnapDirOption {
	return func(s *SnapDir) {
		s.SnapPoint = snapPoint
		s.LocalDir = localDir
	}
}

// ListVersions implements Source.
func (s *SnapDir) ListVersions(ctx context.Context, path string) ([]Record, error) {
	mounts, relative, err := s.snapMounts(path)
	if err != nil {
		return nil, err
	}
	if len(mounts) == 0 {
		log.Debugf("no snapshot directories found for %s", path)
		return nil, nil
	}

	var records []Record
	for _, mount := range mounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := statRecord(filepath.Join(mount, relative))
		switch {
		case err == nil:
			records = append(records, rec)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("permission denied reading snapshot %s (snapshots may be privileged): %w", mount, err)
		default:
			// Not present in this snapshot.
			log.Tracef("absent from snapshot: %s", mount)
		}
	}

	records, err = SortDedup(ctx, records, s.Uniqueness)
	if err != nil {
		return nil, err
	}

	if s.OmitDitto {
		if live, err := statRecord(path); err == nil {
			records = OmitDitto(records, live, s.Uniqueness)
		}
	}
	return records, nil
}

// LastVersion implements Source.
func (s *SnapDir) LastVersion(ctx context.Context, path string) (Record, bool, error) {
	records, err := s.ListVersions(ctx, path)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := lastOf(records)
	return rec, ok, nil
}

// snapMounts returns the snapshot roots to search and the path of the file
// relative to its dataset root.
func (s *SnapDir) snapMounts(path string) ([]string, string, error) {
	if s.SnapPoint != "" && s.LocalDir != "" {
		relative, err := filepath.Rel(s.LocalDir, path)
		if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
			return nil, "", fmt.Errorf("%s is not below local dir %s", path, s.LocalDir)
		}
		mounts, err := snapshotRoots(s.SnapPoint)
		return mounts, relative, err
	}

	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		mounts, err := snapshotRoots(dir)
		if err != nil {
			return nil, "", err
		}
		if len(mounts) > 0 {
			relative, err := filepath.Rel(dir, path)
			if err != nil {
				return nil, "", err
			}
			log.Debugf("dataset root for %s is %s (%d snapshots)", path, dir, len(mounts))
			return mounts, relative, nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil, "", nil
		}
	}
}

// snapshotRoots lists the per-snapshot roots below a dataset root, ZFS first,
// then snapper.
func snapshotRoots(datasetRoot string) ([]string, error) {
	zfsDir := filepath.Join(datasetRoot, filepath.FromSlash(ZFSSnapshotDir))
	entries, err := os.ReadDir(zfsDir)
	switch {
	case err == nil:
		roots := make([]string, 0, len(entries))
		for _, e := range entries {
			roots = append(roots, filepath.Join(zfsDir, e.Name()))
		}
		return roots, nil
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("permission denied listing %s: %w", zfsDir, err)
	}

	snapperDir := filepath.Join(datasetRoot, SnapperDir)
	entries, err = os.ReadDir(snapperDir)
	switch {
	case err == nil:
		var roots []string
		for _, e := range entries {
			root := filepath.Join(snapperDir, e.Name(), "snapshot")
			if fi, err := os.Stat(root); err == nil && fi.IsDir() {
				roots = append(roots, root)
			}
		}
		return roots, nil
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("permission denied listing %s: %w", snapperDir, err)
	}

	return nil, nil
}
