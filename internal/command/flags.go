// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/snapdiff/internal/differ"
	"github.com/tfctl/snapdiff/internal/output"
	"github.com/tfctl/snapdiff/internal/source"
)

// Source names accepted by --source.
var Sources = []string{"snapdir", "httm", "manifest", "s3"}

// NewFlags returns the root command flags. Every flag except --version is
// defaulted, in order, from SNAPDIFF_<NAME> and the config file at cfgPath.
func NewFlags(cfgPath string) []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "diff every version against its predecessor",
		},
		&cli.BoolFlag{
			Name:    "last",
			Aliases: []string{"l"},
			Usage:   "diff the last version against the live file (default)",
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "version source: " + strings.Join(Sources, ", "),
			Value:   "snapdir",
			Validator: func(value string) error {
				return FlagValidators(value, OneOf(Sources...))
			},
		},
		&cli.StringFlag{
			Name:    "uniqueness",
			Aliases: []string{"u"},
			Usage:   "version dedup rule: " + strings.Join(source.Uniquenesses, ", "),
			Value:   "metadata",
			Validator: func(value string) error {
				return FlagValidators(value, OneOf(source.Uniquenesses...))
			},
		},
		&cli.StringFlag{
			Name:  "snap-point",
			Usage: "dataset root holding the snapshots (with --local-dir)",
		},
		&cli.StringFlag{
			Name:  "local-dir",
			Usage: "live directory the --snap-point snapshots map onto",
		},
		&cli.StringFlag{
			Name:    "manifest",
			Aliases: []string{"m"},
			Usage:   "JSON version manifest for --source manifest",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "versioned bucket for --source s3",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "key prefix the --s3-root tree is stored under",
		},
		&cli.StringFlag{
			Name:  "s3-root",
			Usage: "local directory mirrored into the bucket (default: working directory)",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region override",
		},
		&cli.StringFlag{
			Name:  "s3-profile",
			Usage: "AWS shared config profile",
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "S3-compatible endpoint URL",
		},
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "use path-style bucket addressing",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: " + strings.Join(output.Formats, ", "),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OneOf(output.Formats...))
			},
		},
		&cli.StringFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "colored text output: " + strings.Join(output.ColorModes, ", "),
			Value:   "auto",
			Validator: func(value string) error {
				return FlagValidators(value, OneOf(output.ColorModes...))
			},
		},
		&cli.IntFlag{
			Name:      "context",
			Aliases:   []string{"U"},
			Usage:     "lines of context around each hunk",
			Value:     differ.DefaultContext,
			Validator: NonNegative,
		},
		&cli.BoolFlag{
			Name:    "json-diff",
			Aliases: []string{"j"},
			Usage:   "structural diff for JSON documents",
		},
		&cli.IntFlag{
			Name:      "max-bytes",
			Usage:     "omit reports for inputs larger than this (0: no limit)",
			Validator: NonNegative,
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "list the distinct versions instead of diffing",
		},
		&cli.IntFlag{
			Name:      "jobs",
			Usage:     "targets processed concurrently",
			Value:     1,
			Validator: Positive,
		},
		&cli.BoolFlag{
			Name:  "local",
			Usage: "show local timestamps",
		},
	}

	for _, f := range flags {
		switch f := f.(type) {
		case *cli.StringFlag:
			f.Sources = valueSources(f.Name, cfgPath)
		case *cli.BoolFlag:
			f.Sources = valueSources(f.Name, cfgPath)
		case *cli.IntFlag:
			f.Sources = valueSources(f.Name, cfgPath)
		}
	}

	return append(flags, &cli.BoolFlag{
		Name:        "version",
		Aliases:     []string{"v"},
		Usage:       "snapdiff version info",
		HideDefault: true,
	})
}

// valueSources chains the env var and, when a config file is in use, the
// config key for a flag.
func valueSources(name string, cfgPath string) cli.ValueSourceChain {
	chain := cli.NewValueSourceChain(cli.EnvVar(EnvVar(name)))
	if cfgPath != "" {
		chain.Chain = append(chain.Chain, yaml.YAML(ConfigKey(name), altsrc.StringSourcer(cfgPath)))
	}
	return chain
}

// EnvVar returns the environment variable for a flag, e.g. SNAPDIFF_S3_BUCKET.
func EnvVar(name string) string {
	return "SNAPDIFF_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// ConfigKey returns the dotted config key for a flag. s3-* flags live under
// the s3 map (s3-bucket is s3.bucket); other dashes become underscores.
func ConfigKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "s3-"); ok {
		return "s3." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}
