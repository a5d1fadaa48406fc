// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package target

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tfctl/snapdiff/internal/source"
)

// ErrUnresolvable marks an input that cannot be canonicalized.
var ErrUnresolvable = errors.New("unresolvable target")

// FileTarget is a canonical live file path plus its version history.
type FileTarget struct {
	// Input is the argument as given on the command line.
	Input string
	// Path is absolute with symlinks evaluated.
	Path string
	// Live reports whether the live file exists right now.
	Live     bool
	Versions []source.Record
}

// Resolve canonicalizes raw. A file that no longer exists resolves through
// its canonical parent directory with Live false. Directories are rejected.
func Resolve(raw string) (FileTarget, error) {
	t := FileTarget{Input: raw}
	if raw == "" {
		return t, fmt.Errorf("%w: empty path", ErrUnresolvable)
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return t, fmt.Errorf("%w: %s: %w", ErrUnresolvable, raw, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		fi, err := os.Stat(resolved)
		if err != nil {
			return t, fmt.Errorf("%w: %s: %w", ErrUnresolvable, raw, err)
		}
		if fi.IsDir() {
			return t, fmt.Errorf("%w: %s: is a directory", ErrUnresolvable, raw)
		}
		t.Path, t.Live = resolved, true
		return t, nil
	case errors.Is(err, fs.ErrNotExist):
		parent, perr := filepath.EvalSymlinks(filepath.Dir(abs))
		if perr != nil {
			return t, fmt.Errorf("%w: %s: %w", ErrUnresolvable, raw, perr)
		}
		t.Path = filepath.Join(parent, filepath.Base(abs))
		return t, nil
	default:
		return t, fmt.Errorf("%w: %s: %w", ErrUnresolvable, raw, err)
	}
}
