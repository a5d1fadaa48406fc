// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tfctl/snapdiff/internal/log"
)

// Manifest reads versions from a JSON index produced by an external
// snapshot or backup tool:
//
//	{"versions": {"/home/alice/notes.txt": [
//	  {"path": "/backup/1/notes.txt", "modify_time": "2026-01-02T03:04:05Z", "size": 12},
//	  {"path": "s3://bucket/notes.txt?versionId=abc", "modify_time": "...", "digest": "..."}
//	]}}
//
// Relative "path" values resolve against the manifest's directory.
type Manifest struct {
	Path       string
	Uniqueness Uniqueness

	once sync.Once
	doc  string
	err  error
}

// NewManifest returns a Manifest source for the index file at path.
func NewManifest(path string, u Uniqueness) *Manifest {
	return &Manifest{Path: path, Uniqueness: u}
}

// ListVersions implements Source.
func (m *Manifest) ListVersions(ctx context.Context, path string) ([]Record, error) {
	doc, err := m.load()
	if err != nil {
		return nil, err
	}

	var entries gjson.Result
	gjson.Get(doc, "versions").ForEach(func(key, value gjson.Result) bool {
		if canonicalKey(key.String()) == path {
			entries = value
			return false
		}
		return true
	})
	if !entries.Exists() {
		log.Debugf("manifest %s has no entry for %s", m.Path, path)
		return nil, nil
	}
	if !entries.IsArray() {
		return nil, fmt.Errorf("manifest %s: versions for %s is not an array", m.Path, path)
	}

	var records []Record
	var parseErr error
	entries.ForEach(func(idx, entry gjson.Result) bool {
		rec, err := m.record(entry)
		if err != nil {
			parseErr = fmt.Errorf("manifest %s: entry %d for %s: %w", m.Path, idx.Int(), path, err)
			return false
		}
		records = append(records, rec)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return SortDedup(ctx, records, m.Uniqueness)
}

// LastVersion implements Source.
func (m *Manifest) LastVersion(ctx context.Context, path string) (Record, bool, error) {
	records, err := m.ListVersions(ctx, path)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := lastOf(records)
	return rec, ok, nil
}

// canonicalKey resolves symlinks in a manifest key the way targets are
// resolved, falling back to the parent directory for files that are gone.
func canonicalKey(key string) string {
	key = filepath.Clean(key)
	if resolved, err := filepath.EvalSymlinks(key); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(key)); err == nil {
		return filepath.Join(dir, filepath.Base(key))
	}
	return key
}

func (m *Manifest) record(entry gjson.Result) (Record, error) {
	loc := entry.Get("path").String()
	if loc == "" {
		return Record{}, fmt.Errorf("missing path")
	}
	if !strings.Contains(loc, "://") && !filepath.IsAbs(loc) {
		loc = filepath.Join(filepath.Dir(m.Path), loc)
	}

	raw := entry.Get("modify_time").String()
	if raw == "" {
		return Record{}, fmt.Errorf("missing modify_time")
	}
	modTime, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Record{}, fmt.Errorf("bad modify_time %q: %w", raw, err)
	}

	return Record{
		Location: loc,
		ModTime:  modTime,
		Size:     entry.Get("size").Int(),
		Digest:   entry.Get("digest").String(),
	}, nil
}

// load reads and validates the manifest once.
func (m *Manifest) load() (string, error) {
	m.once.Do(func() {
		data, err := os.ReadFile(m.Path)
		if err != nil {
			m.err = fmt.Errorf("failed to read manifest: %w", err)
			return
		}
		if !gjson.ValidBytes(data) {
			m.err = fmt.Errorf("manifest %s is not valid JSON", m.Path)
			return
		}
		m.doc = string(data)
	})
	return m.doc, m.err
}
