// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"
	"io"

	"github.com/tfctl/snapdiff/internal/config"
)

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// loaded configuration, context, the starting working directory and the
// output streams.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string
	Stdout      io.Writer
	Stderr      io.Writer
}
