// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/snapdiff/internal/config"
	"github.com/tfctl/snapdiff/internal/log"
	"github.com/tfctl/snapdiff/internal/meta"
)

// ExitStatus is returned by the action to carry a process exit code.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// InitApp builds the root command. Configuration is loaded first so that
// every flag can be defaulted from the config file.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoConfig) {
		return nil, err
	}
	log.Debugf("config source: %s", cfg.Source)

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}

	app := &cli.Command{
		Name:      "snapdiff",
		Usage:     "show differences between snapshot versions of files",
		UsageText: "snapdiff [options] FILE...",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:                 NewFlags(cfg.Source),
		Action:                runAction,
		EnableShellCompletion: true,
		// Errors are reported and mapped to exit codes by the caller.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	// Make sure flags are sorted for the --help text.
	sort.Slice(app.Flags, func(i, j int) bool {
		return app.Flags[i].Names()[0] < app.Flags[j].Names()[0]
	})

	return app, nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}
