// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"

	awsx "github.com/tfctl/snapdiff/internal/aws"
	"github.com/tfctl/snapdiff/internal/cacheutil"
	"github.com/tfctl/snapdiff/internal/config"
	"github.com/tfctl/snapdiff/internal/differ"
	"github.com/tfctl/snapdiff/internal/location"
	"github.com/tfctl/snapdiff/internal/log"
	"github.com/tfctl/snapdiff/internal/output"
	"github.com/tfctl/snapdiff/internal/pipeline"
	"github.com/tfctl/snapdiff/internal/source"
)

// runAction assembles the pipeline from flags and runs it over the
// positional paths.
func runAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	stdout, stderr := m.Stdout, m.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		pipeline.Report(stderr, fmt.Errorf("%w: no file paths given", pipeline.ErrInvocation))
		return ExitStatus(pipeline.ExitFailure)
	}
	log.Debugf("paths: %v", paths)

	store, cached := cacheutil.Default()
	if cached {
		cleanHours, _ := config.GetInt("cache.clean")
		if err := store.Purge(cleanHours); err != nil {
			log.WithError(err).Warn("failed to purge cache")
		}
	}

	s3Client := lazyS3(cmd)
	src, err := newSource(ctx, cmd, m.StartingDir, s3Client)
	if err != nil {
		pipeline.Report(stderr, fmt.Errorf("%w: %w", pipeline.ErrInvocation, err))
		return ExitStatus(pipeline.ExitFailure)
	}

	reader := &location.Reader{
		NewS3: func(ctx context.Context) (location.GetObjectAPI, error) { return s3Client(ctx) },
		Cache: store,
	}
	engine := differ.New(reader, differ.Options{
		Context:  cmd.Int("context"),
		JSON:     cmd.Bool("json-diff"),
		MaxBytes: cmd.Int("max-bytes"),
	})

	format := cmd.String("output")
	opts := output.Options{Local: cmd.Bool("local")}
	if format == "text" {
		f, _ := stdout.(*os.File)
		if opts.Color = output.UseColor(cmd.String("color"), f); opts.Color {
			opts.Palette = output.DefaultPalette()
		}
	}
	// Validate once; NewReporter cannot fail afterwards.
	if _, err := output.New(format, io.Discard, opts); err != nil {
		pipeline.Report(stderr, fmt.Errorf("%w: %w", pipeline.ErrInvocation, err))
		return ExitStatus(pipeline.ExitFailure)
	}

	p := &pipeline.Pipeline{
		Source: src,
		Engine: engine,
		NewReporter: func(w io.Writer) output.Reporter {
			r, _ := output.New(format, w, opts)
			return r
		},
		Stdout: stdout,
		Stderr: stderr,
		Jobs:   cmd.Int("jobs"),
		List:   cmd.Bool("list"),
	}
	// --uniqueness all keeps equal neighbours on purpose.
	p.KeepDuplicates = cmd.String("uniqueness") == source.UniqueAll.String()

	if status := p.Run(ctx, paths, resolveMode(cmd)); status != pipeline.ExitOK {
		return ExitStatus(status)
	}
	return nil
}

// resolveMode resolves --all/--last. --all wins when both are given; with neither,
// the config key "mode" (all|last) decides.
func resolveMode(cmd *cli.Command) pipeline.Mode {
	switch {
	case cmd.Bool("all"):
		return pipeline.ModeAll
	case cmd.Bool("last"):
		return pipeline.ModeLast
	}
	if mode, _ := config.GetString("mode", "last"); mode == "all" {
		return pipeline.ModeAll
	}
	return pipeline.ModeLast
}

// newSource builds the --source adapter.
func newSource(ctx context.Context, cmd *cli.Command, startingDir string, s3Client func(context.Context) (*s3v2.Client, error)) (source.Source, error) {
	u, err := source.ParseUniqueness(cmd.String("uniqueness"))
	if err != nil {
		return nil, err
	}

	switch name := cmd.String("source"); name {
	case "snapdir":
		opts := []source.SnapDirOption{source.WithUniqueness(u)}
		snapPoint, localDir := cmd.String("snap-point"), cmd.String("local-dir")
		if (snapPoint == "") != (localDir == "") {
			return nil, fmt.Errorf("--snap-point and --local-dir must be given together")
		}
		if snapPoint != "" {
			sp, err := canonicalDir(snapPoint)
			if err != nil {
				return nil, fmt.Errorf("--snap-point: %w", err)
			}
			ld, err := canonicalDir(localDir)
			if err != nil {
				return nil, fmt.Errorf("--local-dir: %w", err)
			}
			opts = append(opts, source.WithAlias(sp, ld))
		}
		return source.NewSnapDir(opts...), nil

	case "httm":
		binary, _ := config.GetString("httm.binary", "httm")
		return source.NewHttm(binary), nil

	case "manifest":
		path := cmd.String("manifest")
		if path == "" {
			return nil, fmt.Errorf("--source manifest requires --manifest")
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return source.NewManifest(abs, u), nil

	case "s3":
		bucket := cmd.String("s3-bucket")
		if bucket == "" {
			return nil, fmt.Errorf("--source s3 requires --s3-bucket")
		}
		root := cmd.String("s3-root")
		if root == "" {
			root = startingDir
		}
		root, err := canonicalDir(root)
		if err != nil {
			return nil, fmt.Errorf("--s3-root: %w", err)
		}
		client, err := s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return &source.S3{
			Client:    client,
			Bucket:    bucket,
			Prefix:    cmd.String("s3-prefix"),
			Root:      root,
			OmitDitto: true,
		}, nil

	default:
		return nil, fmt.Errorf("unknown source %q, must be one of %v", name, Sources)
	}
}

// lazyS3 returns a function building the S3 client once from the s3-* flags.
func lazyS3(cmd *cli.Command) func(context.Context) (*s3v2.Client, error) {
	var (
		once   sync.Once
		client *s3v2.Client
		err    error
	)
	return func(ctx context.Context) (*s3v2.Client, error) {
		once.Do(func() {
			attempts, _ := config.GetInt("s3.max_attempts", 0)
			client, err = awsx.NewClient(ctx, awsx.ClientConfig{
				Profile:     cmd.String("s3-profile"),
				Region:      cmd.String("s3-region"),
				MaxAttempts: attempts,
				Endpoint:    cmd.String("s3-endpoint"),
				PathStyle:   cmd.Bool("s3-path-style"),
			})
		})
		return client, err
	}
}

// canonicalDir returns the absolute, symlink-free form of an existing directory.
func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return resolved, nil
}
