// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package location reads the content behind a version location. Locations are
// local paths or s3://bucket/key?versionId=ID URLs.
package location
