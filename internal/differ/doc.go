// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ compares the contents of two version locations and renders
// the difference as a unified diff, or as a structural delta for JSON
// documents.
package differ
