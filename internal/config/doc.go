// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for snapdiff's user
// configuration. The configuration is a YAML document named snapdiff.yaml in
// the user's configuration directory, typically:
//   - Linux: $XDG_CONFIG_HOME/snapdiff.yaml or $HOME/.config/snapdiff.yaml
//   - macOS: $HOME/Library/Application Support/snapdiff.yaml
//
// SNAPDIFF_CFG_FILE overrides the location.
package config
