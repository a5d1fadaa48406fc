// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tfctl/snapdiff/internal/log"
)

// ClientConfig holds the --s3-* overrides. Zero values defer to the shell's
// AWS setup: AWS_PROFILE, shared config and credentials, env, IMDS.
type ClientConfig struct {
	Profile string
	Region  string
	// MaxAttempts below 1 keeps the SDK retry default.
	MaxAttempts int
	// Endpoint targets an S3-compatible service such as MinIO.
	Endpoint  string
	PathStyle bool
}

// NewClient loads the AWS config for c and returns an S3 client.
func NewClient(ctx context.Context, c ClientConfig) (*s3v2.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, c.loadOptions()...)
	if err != nil {
		log.Debugf("aws config load err: err=%v", err)
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debugf("aws config loaded: region=%s profile=%s endpoint=%s", cfg.Region, c.Profile, c.Endpoint)

	return s3v2.NewFromConfig(cfg, c.s3Options), nil
}

func (c ClientConfig) loadOptions() []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryer(c.retryer))
	}
	return opts
}

func (c ClientConfig) retryer() awsv2.Retryer {
	return retry.NewStandard(func(o *retry.StandardOptions) { o.MaxAttempts = c.MaxAttempts })
}

func (c ClientConfig) s3Options(o *s3v2.Options) {
	if c.Endpoint != "" {
		o.BaseEndpoint = awsv2.String(c.Endpoint)
	}
	o.UsePathStyle = c.PathStyle
}
