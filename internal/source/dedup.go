// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/tfctl/snapdiff/internal/log"
)

// SortDedup orders records oldest first (ties broken by size, then location)
// and removes redundant versions according to u. Records carrying a Digest
// keep it; local records get a blake2b digest when u is UniqueContents.
func SortDedup(ctx context.Context, records []Record, u Uniqueness) ([]Record, error) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		return a.Location < b.Location
	})

	switch u {
	case UniqueAll:
		return sorted, nil
	case UniqueContents:
		for i := range sorted {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if sorted[i].Digest != "" {
				continue
			}
			d, err := FileDigest(sorted[i].Location)
			if err != nil {
				return nil, err
			}
			sorted[i].Digest = d
		}
		return collapse(sorted, func(a, b Record) bool { return a.Digest == b.Digest }), nil
	default:
		return collapse(sorted, func(a, b Record) bool {
			return a.ModTime.Equal(b.ModTime) && a.Size == b.Size
		}), nil
	}
}

// collapse keeps the first record of every run of equal neighbours.
func collapse(records []Record, equal func(a, b Record) bool) []Record {
	out := records[:0]
	for _, r := range records {
		if len(out) > 0 && equal(out[len(out)-1], r) {
			log.Tracef("dropping ditto version %s", r.Location)
			continue
		}
		out = append(out, r)
	}
	return out
}

// OmitDitto drops the newest record when it is indistinguishable from the
// live file under u. The live record carries the live file's metadata.
func OmitDitto(records []Record, live Record, u Uniqueness) []Record {
	last, ok := lastOf(records)
	if !ok || u == UniqueAll {
		return records
	}

	ditto := last.ModTime.Equal(live.ModTime) && last.Size == live.Size
	if u == UniqueContents {
		if live.Digest == "" {
			if d, err := FileDigest(live.Location); err == nil {
				live.Digest = d
			}
		}
		ditto = live.Digest != "" && last.Digest == live.Digest
	}

	if ditto {
		log.Debugf("omitting version identical to live file: %s", last.Location)
		return records[:len(records)-1]
	}
	return records
}

// FileDigest returns the hex blake2b-256 digest of a local file's contents.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// statRecord builds a Record from Lstat metadata.
func statRecord(path string) (Record, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Record{}, err
	}
	return Record{Location: path, ModTime: fi.ModTime(), Size: fi.Size()}, nil
}
