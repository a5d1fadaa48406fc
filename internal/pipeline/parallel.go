// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"context"

	"golang.org/x/sync/errgroup"
)

// runParallel processes up to Jobs targets at once into per-target buffers
// and writes them out in input order as each completes. Nothing further is
// written once ctx is cancelled.
func (p *Pipeline) runParallel(ctx context.Context, paths []string, mode Mode) int {
	type result struct {
		out, err bytes.Buffer
		ok       bool
		done     chan struct{}
	}

	results := make([]*result, len(paths))
	for i := range results {
		results[i] = &result{done: make(chan struct{})}
	}

	var g errgroup.Group
	g.SetLimit(p.Jobs)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, raw := range paths {
			res := results[i]
			g.Go(func() error {
				defer close(res.done)
				if ctx.Err() == nil {
					res.ok = p.process(ctx, raw, mode, &res.out, &res.err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	processed := 0
	for _, res := range results {
		<-res.done
		if ctx.Err() != nil {
			continue
		}
		_, _ = res.err.WriteTo(p.stderr())
		_, _ = res.out.WriteTo(p.stdout())
		if res.ok {
			processed++
		}
	}
	<-finished
	return processed
}
