// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Do not import any other snapdiff packages to avoid import cycles.

package version

import "runtime/debug"

// Version is the release version. Release builds may override it with
// -ldflags "-X github.com/tfctl/snapdiff/internal/version.Version=v1.2.3".
var Version = ""

// String returns the version, falling back to module build info and then to
// "dev". A short VCS revision is appended for development builds.
func String() string {
	if Version != "" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return "dev+" + s.Value[:7]
		}
	}
	return "dev"
}
