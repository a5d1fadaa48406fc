// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tfctl/snapdiff/internal/differ"
	"github.com/tfctl/snapdiff/internal/log"
	"github.com/tfctl/snapdiff/internal/output"
	"github.com/tfctl/snapdiff/internal/source"
	"github.com/tfctl/snapdiff/internal/target"
)

// Exit statuses returned by Run.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

var (
	// ErrUnresolvableTarget marks an input path that cannot be resolved.
	ErrUnresolvableTarget = target.ErrUnresolvable
	// ErrLocationUnreadable marks a comparison whose content could not be read.
	ErrLocationUnreadable = differ.ErrLocationUnreadable
	// ErrDuplicateAdjacentVersion marks adjacent versions the source should
	// have collapsed.
	ErrDuplicateAdjacentVersion = errors.New("duplicate adjacent version")
	// ErrInvocation marks a run with no usable input.
	ErrInvocation = errors.New("invocation error")
	// ErrSource marks a version source failure for a resolved target.
	ErrSource = errors.New("version source failed")
)

// Mode selects which pairs are compared.
type Mode int

const (
	// ModeLast compares the newest version against the live file.
	ModeLast Mode = iota
	// ModeAll compares every version against its predecessor.
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "last"
}

// Comparer is the diff engine contract.
type Comparer interface {
	Compare(ctx context.Context, a, b differ.Location) (differ.Result, error)
}

// Pipeline holds the collaborators of a run.
type Pipeline struct {
	Source source.Source
	Engine Comparer
	// NewReporter builds the reporter for one output stream.
	NewReporter func(w io.Writer) output.Reporter
	Stdout      io.Writer
	Stderr      io.Writer
	// Jobs > 1 processes that many targets concurrently. Output stays in
	// input order.
	Jobs int
	// List prints the version set of each target instead of diffs.
	List bool
	// KeepDuplicates is set when the source keeps every version on purpose.
	// Equal neighbours are then skipped without an error line.
	KeepDuplicates bool
	// Resolve defaults to target.Resolve.
	Resolve func(raw string) (target.FileTarget, error)
}

// Run processes every path and returns the exit status: ExitOK when at least
// one target was processed, ExitFailure when every target failed or no paths
// were given, ExitInterrupted when ctx was cancelled.
func (p *Pipeline) Run(ctx context.Context, paths []string, mode Mode) int {
	if len(paths) == 0 {
		Report(p.stderr(), fmt.Errorf("%w: no file paths given", ErrInvocation))
		return ExitFailure
	}
	log.Debugf("run: mode=%s targets=%d jobs=%d", mode, len(paths), p.Jobs)

	var processed int
	if p.Jobs > 1 && len(paths) > 1 {
		processed = p.runParallel(ctx, paths, mode)
	} else {
		for _, raw := range paths {
			if ctx.Err() != nil {
				break
			}
			if p.process(ctx, raw, mode, p.stdout(), p.stderr()) {
				processed++
			}
		}
	}

	switch {
	case ctx.Err() != nil:
		return ExitInterrupted
	case processed > 0:
		return ExitOK
	default:
		return ExitFailure
	}
}

// Report writes err to w as a single "snapdiff: ..." line.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "snapdiff: %v\n", err)
}

// process handles one target and reports whether it resolved and its
// versions were listed.
func (p *Pipeline) process(ctx context.Context, raw string, mode Mode, out, errw io.Writer) bool {
	resolve := p.Resolve
	if resolve == nil {
		resolve = target.Resolve
	}

	t, err := resolve(raw)
	if err != nil {
		Report(errw, err)
		return false
	}

	records, err := p.versions(ctx, t, mode)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// A resolved target counts toward the exit status.
		Report(errw, fmt.Errorf("%w: %s: %w", ErrSource, t.Path, err))
		return true
	}
	if !t.Live && len(records) == 0 {
		Report(errw, fmt.Errorf("%w: %s: neither a live version nor any snapshot version exists", ErrUnresolvableTarget, raw))
		return false
	}
	t.Versions = records

	reporter := p.NewReporter(out)
	if p.List {
		if err := reporter.Versions(t.Path, t.Versions); err != nil {
			log.WithError(err).Error("failed to write versions")
		}
		return true
	}

	var live *source.Record
	if t.Live {
		rec := source.Record{Location: t.Path}
		if fi, err := os.Stat(t.Path); err == nil {
			rec.ModTime, rec.Size = fi.ModTime(), fi.Size()
		}
		live = &rec
	}

	pairs := Pairs(t.Versions, live, mode)
	if len(pairs) == 0 {
		log.Debugf("nothing to compare for %s: versions=%d live=%t", t.Path, len(t.Versions), t.Live)
	}

	for _, pair := range pairs {
		if ctx.Err() != nil {
			return true
		}
		if !pair.Live && pair.From.SameAs(pair.To) {
			if p.KeepDuplicates {
				log.Debugf("unchanged: %s %s", pair.From.Location, pair.To.Location)
				continue
			}
			Report(errw, fmt.Errorf("%w: %s and %s", ErrDuplicateAdjacentVersion, pair.From.Location, pair.To.Location))
			continue
		}

		res, err := p.Engine.Compare(ctx,
			differ.Location{Name: pair.From.Location, ModTime: pair.From.ModTime},
			differ.Location{Name: pair.To.Location, ModTime: pair.To.ModTime})
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			Report(errw, fmt.Errorf("%w (comparing %s and %s)", err, pair.From.Location, pair.To.Location))
			continue
		}
		if !res.Differs {
			log.Debugf("identical: %s %s", res.From, res.To)
			continue
		}
		if ctx.Err() != nil {
			return true
		}
		if err := reporter.Difference(output.Difference{
			Target: t.Path,
			From:   res.From,
			To:     res.To,
			Report: res.Report,
		}); err != nil {
			log.WithError(err).Error("failed to write difference")
		}
	}
	return true
}

// versions asks the source only for what mode needs.
func (p *Pipeline) versions(ctx context.Context, t target.FileTarget, mode Mode) ([]source.Record, error) {
	if p.List || mode == ModeAll || !t.Live {
		return p.Source.ListVersions(ctx, t.Path)
	}
	rec, ok, err := p.Source.LastVersion(ctx, t.Path)
	if err != nil || !ok {
		return nil, err
	}
	return []source.Record{rec}, nil
}

func (p *Pipeline) stdout() io.Writer {
	if p.Stdout == nil {
		return os.Stdout
	}
	return p.Stdout
}

func (p *Pipeline) stderr() io.Writer {
	if p.Stderr == nil {
		return os.Stderr
	}
	return p.Stderr
}
