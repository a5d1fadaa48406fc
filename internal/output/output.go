// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tfctl/snapdiff/internal/source"
)

// Formats lists the accepted --output values.
var Formats = []string{"text", "json", "yaml"}

// ColorModes lists the accepted --color values.
var ColorModes = []string{"auto", "always", "never"}

// Difference is one differing comparison of a target.
type Difference struct {
	Target string
	From   string
	To     string
	Report string
}

// Reporter receives pipeline results for a single output stream. Calls are
// not safe for concurrent use.
type Reporter interface {
	Difference(d Difference) error
	Versions(target string, records []source.Record) error
}

// Options controls rendering shared by all formats.
type Options struct {
	// Color enables styling in the text format. Nil palette entries are plain.
	Color   bool
	Palette Palette
	// Local renders --list timestamps in the local zone instead of UTC.
	Local bool
}

// New returns a Reporter writing format to w.
func New(format string, w io.Writer, opts Options) (Reporter, error) {
	switch format {
	case "", "text":
		return &textReporter{w: w, opts: opts}, nil
	case "json":
		return newJSONReporter(w, opts), nil
	case "yaml":
		return &yamlReporter{w: w, opts: opts}, nil
	}
	return nil, fmt.Errorf("unknown output format %q, must be one of %v", format, Formats)
}

// UseColor resolves a --color mode for f. "auto" colors terminals unless
// NO_COLOR is set.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if v, ok := os.LookupEnv("NO_COLOR"); ok && v != "" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Notice is the one-line announcement preceding a report.
func Notice(from, to string) string {
	return fmt.Sprintf("Files %s and %s differ", from, to)
}

func (o Options) stamp(t time.Time) time.Time {
	if o.Local {
		return t.Local()
	}
	return t.UTC()
}
