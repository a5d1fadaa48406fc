// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/tfctl/snapdiff/internal/log"
)

// ErrLocationUnreadable marks a comparison side whose content could not be read.
var ErrLocationUnreadable = errors.New("location unreadable")

const (
	// DefaultContext is the number of unchanged lines around each hunk.
	DefaultContext = 3
	// Omitted replaces the report when inputs exceed Options.MaxBytes.
	Omitted = "# diff omitted (oversize)"

	binarySniffLen = 8000
	noNewline      = "\\ No newline at end of file\n"
	headerTime     = "2006-01-02 15:04:05.000000000 -0700"
)

// Reader returns the bytes behind a location name.
type Reader interface {
	ReadAll(ctx context.Context, name string) ([]byte, error)
}

// Location is one side of a comparison.
type Location struct {
	Name    string
	ModTime time.Time
}

// Result is the outcome of a comparison. Report is empty when the contents
// are identical.
type Result struct {
	From    string
	To      string
	Differs bool
	Report  string
}

// Options controls report rendering.
type Options struct {
	// Context lines per hunk. Negative selects DefaultContext.
	Context int
	// JSON renders a structural delta when both sides are JSON objects.
	JSON bool
	// MaxBytes caps the combined input size for which a report is rendered.
	// 0 means no limit.
	MaxBytes int
}

// Engine compares locations read through a Reader.
type Engine struct {
	reader Reader
	opts   Options
}

// New returns an Engine.
func New(r Reader, opts Options) *Engine {
	if opts.Context < 0 {
		opts.Context = DefaultContext
	}
	return &Engine{reader: r, opts: opts}
}

// Compare reads both locations and reports whether they differ.
func (e *Engine) Compare(ctx context.Context, a, b Location) (Result, error) {
	res := Result{From: a.Name, To: b.Name}

	left, err := e.read(ctx, a.Name)
	if err != nil {
		return res, err
	}
	if a.Name == b.Name {
		return res, nil
	}
	right, err := e.read(ctx, b.Name)
	if err != nil {
		return res, err
	}

	if bytes.Equal(left, right) {
		return res, nil
	}
	res.Differs = true

	switch {
	case e.opts.MaxBytes > 0 && len(left)+len(right) > e.opts.MaxBytes:
		log.Debugf("oversize comparison: %s (%d) %s (%d)", a.Name, len(left), b.Name, len(right))
		res.Report = fmt.Sprintf("--- %s\n+++ %s\n@@\n%s\n", a.Name, b.Name, Omitted)
	case isBinary(left) || isBinary(right):
		res.Report = fmt.Sprintf("Binary files %s and %s differ\n", a.Name, b.Name)
	default:
		if e.opts.JSON {
			if report, ok := e.jsonDelta(left, right); ok {
				res.Report = report
				return res, nil
			}
		}
		res.Report, err = e.unified(a, b, left, right)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Engine) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := e.reader.ReadAll(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLocationUnreadable, name, err)
	}
	return data, nil
}

// unified renders a classic unified patch for a↦b.
func (e *Engine) unified(a, b Location, left, right []byte) (string, error) {
	u := difflib.UnifiedDiff{
		A:        splitLines(left),
		B:        splitLines(right),
		FromFile: a.Name,
		ToFile:   b.Name,
		FromDate: stamp(a.ModTime),
		ToDate:   stamp(b.ModTime),
		Context:  e.opts.Context,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("failed to render diff: %w", err)
	}
	return s, nil
}

// jsonDelta renders a structural delta. It declines when either side is not
// a JSON object or when the documents are structurally equal (formatting-only
// changes are left to the unified diff).
func (e *Engine) jsonDelta(left, right []byte) (string, bool) {
	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil || !delta.Modified() {
		return "", false
	}

	var jdoc map[string]interface{}
	if err := json.Unmarshal(left, &jdoc); err != nil {
		return "", false
	}

	f := formatter.NewAsciiFormatter(jdoc, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
	})
	s, err := f.Format(delta)
	if err != nil {
		log.WithError(err).Debug("json delta failed, using unified diff")
		return "", false
	}
	return s, true
}

// splitLines keeps each line's newline. A final line without one carries the
// "\ No newline at end of file" marker so it never matches its terminated twin.
func splitLines(b []byte) []string {
	if len(b) == 0 {
		return []string{}
	}
	lines := strings.SplitAfter(string(b), "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n" + noNewline
	return lines
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(headerTime)
}

func isBinary(b []byte) bool {
	if len(b) > binarySniffLen {
		b = b[:binarySniffLen]
	}
	return bytes.IndexByte(b, 0) >= 0
}
