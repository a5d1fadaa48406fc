// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package source enumerates the historical versions of a live file. A Source
// returns Records oldest first with no two adjacent records sharing content.
// Adapters cover native snapshot directories (ZFS and snapper), the httm CLI,
// JSON manifests and versioned S3 buckets.
package source
