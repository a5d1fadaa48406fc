// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/tfctl/snapdiff/internal/command"
	"github.com/tfctl/snapdiff/internal/config"
	"github.com/tfctl/snapdiff/internal/log"
	"github.com/tfctl/snapdiff/internal/pipeline"
	"github.com/tfctl/snapdiff/internal/version"
)

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v ahead of any "--" terminator and
// returns whether it was handled.
func handleVersion(w io.Writer, args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "--version" || a == "-v" {
			fmt.Fprintln(w, version.String())
			return true
		}
	}
	return false
}

// processSetOnly expands the first @name argument into the config list
// sets.<name>. An @name with no such set is left alone so it can still be
// used as a file name.
func processSetOnly(args []string) []string {
	for i := 1; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if !strings.HasPrefix(a, "@") || len(a) == 1 {
			continue
		}

		setArgs, err := config.GetStringSlice("sets." + a[1:])
		if err != nil {
			log.Debugf("no set for %s: %v", a, err)
			continue
		}

		var parts []string
		for _, arg := range setArgs {
			parts = append(parts, strings.Fields(arg)...)
		}
		expanded := append([]string{}, args[:i]...)
		expanded = append(expanded, parts...)
		return append(expanded, args[i+1:]...)
	}
	return args
}

// exitCode maps a command error to the process exit status.
func exitCode(ctx context.Context, stderr io.Writer, err error) int {
	var status command.ExitStatus
	switch {
	case err == nil:
		return pipeline.ExitOK
	case errors.As(err, &status):
		return int(status)
	case ctx.Err() != nil:
		return pipeline.ExitInterrupted
	default:
		fmt.Fprintf(stderr, "snapdiff: %v\n", err)
		log.Debugf("app run err: err=%v", err)
		return pipeline.ExitFailure
	}
}

// run initializes the app and runs it, returning the exit code.
func run(ctx context.Context, args []string) int {
	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return pipeline.ExitFailure
	}

	return exitCode(ctx, os.Stderr, app.Run(ctx, args))
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(os.Stdout, args[1:]) {
		return pipeline.ExitOK
	}

	args = processSetOnly(args)
	log.Debugf("args after set processing: args=%v", args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, args)
}
