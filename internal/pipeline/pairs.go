// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "github.com/tfctl/snapdiff/internal/source"

// Pair is one comparison. Live is set when To is the live file.
type Pair struct {
	From source.Record
	To   source.Record
	Live bool
}

// Pairs plans the comparisons for oldest-first records. live is the live
// file, or nil when it no longer exists.
func Pairs(records []source.Record, live *source.Record, mode Mode) []Pair {
	if mode == ModeAll {
		if len(records) < 2 {
			return nil
		}
		pairs := make([]Pair, 0, len(records)-1)
		prev := records[0]
		for _, cur := range records[1:] {
			pairs = append(pairs, Pair{From: prev, To: cur})
			prev = cur
		}
		return pairs
	}

	n := len(records)
	switch {
	case live != nil && n > 0:
		return []Pair{{From: records[n-1], To: *live, Live: true}}
	case live == nil && n > 1:
		return []Pair{{From: records[n-2], To: records[n-1]}}
	}
	return nil
}
