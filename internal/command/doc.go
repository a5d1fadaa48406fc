// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command defines the snapdiff CLI. It wires flags, validators and
// the action that assembles a version source, diff engine, reporter and
// pipeline from them.
package command
