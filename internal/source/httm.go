// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/tfctl/snapdiff/internal/log"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Httm lists versions by running the httm CLI in raw mode. httm already
// deduplicates by modify time and size and, with --omit-ditto, drops the
// snapshot identical to the live file.
type Httm struct {
	Binary string
	Run    Runner
}

// NewHttm returns an Httm adapter using binary, or "httm" from PATH.
func NewHttm(binary string) *Httm {
	if binary == "" {
		binary = "httm"
	}
	return &Httm{Binary: binary, Run: execRunner}
}

// ListVersions implements Source.
func (h *Httm) ListVersions(ctx context.Context, path string) ([]Record, error) {
	return h.query(ctx, "-n", "--omit-ditto", path)
}

// LastVersion implements Source.
func (h *Httm) LastVersion(ctx context.Context, path string) (Record, bool, error) {
	records, err := h.query(ctx, "-n", "--omit-ditto", "--last-snap=any", path)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := lastOf(records)
	return rec, ok, nil
}

func (h *Httm) query(ctx context.Context, args ...string) ([]Record, error) {
	out, err := h.Run(ctx, h.Binary, args...)
	if err != nil {
		return nil, err
	}

	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := statRecord(line)
		if err != nil {
			log.WithError(err).Warnf("skipping unreadable httm version %s", line)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read httm output: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ModTime.Before(records[j].ModTime)
	})
	return records, nil
}

// execRunner runs name via os/exec, folding stderr into the error.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debugf("exec: %s %s", name, strings.Join(args, " "))
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s not found in PATH: %w", name, err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %s: %w", name, msg, err)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}
