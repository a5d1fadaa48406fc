// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package pipeline drives each input path through resolution, version
// listing and comparison, and aggregates the exit status of a run.
//
// In LAST mode the newest version is compared with the live file, or, when
// the live file is gone, the two newest versions are compared. In ALL mode
// every version is compared with its predecessor, oldest first.
package pipeline
