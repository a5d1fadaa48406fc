// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tfctl/snapdiff/internal/log"
)

// Entry represents a cached artifact on disk.
// Key is the clear-text key; EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
}

// Store is an on-disk cache rooted at Base. Entries are immutable objects
// (e.g. S3 object versions), so there is no invalidation beyond Purge.
type Store struct {
	Base string
}

// Dir resolves the base cache directory.
// Precedence:
//  1. SNAPDIFF_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/snapdiff
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("SNAPDIFF_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "snapdiff"), true
	}
	return "", false
}

// Enabled returns true unless SNAPDIFF_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("SNAPDIFF_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// Default returns the Store at Dir(), or false when caching is disabled or no
// base directory can be resolved.
func Default() (*Store, bool) {
	if !Enabled() {
		return nil, false
	}
	base, ok := Dir()
	if !ok {
		return nil, false
	}
	return &Store{Base: base}, true
}

// EntryPath returns the absolute path where a cache entry would live given
// subdirectory components and the clear-text key. It also returns true if a
// file currently exists at that path.
func (s *Store) EntryPath(subdirs []string, clearKey string) (string, bool) {
	p := filepath.Join(append([]string{s.Base}, append(subdirs, encodeKey(clearKey))...)...)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Read attempts to read a cached entry. Data is returned byte for byte.
func (s *Store) Read(subdirs []string, clearKey string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	log.Debugf("cache hit: key=%s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       b,
	}, true
}

// Write stores data for the given key beneath subdirs. The file is written
// to a temporary name and renamed so readers never see partial entries.
func (s *Store) Write(subdirs []string, clearKey string, data []byte) error {
	if s == nil {
		return nil
	}
	dir := filepath.Join(append([]string{s.Base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, encodeKey(clearKey))); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Debugf("cache write: key=%s", clearKey)
	return nil
}

// Purge removes files older than the provided number of hours.
// If hours <= 0 or the base directory does not exist, it is a no-op.
func (s *Store) Purge(hours int) error {
	if s == nil || hours <= 0 {
		log.Tracef("cache cleaning disabled")
		return nil
	}

	maxAge := time.Duration(hours) * time.Hour
	if err := filepath.Walk(s.Base, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info == nil {
			return nil
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// encodeKey returns the hex sha256 of the clear-text key.
func encodeKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
