//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 The jexplode authors
//
// This file is part of jexplode.
//
// jexplode is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// jexplode is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with jexplode. If not, see https://www.gnu.org/licenses/.

package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Package awsconfig builds the AWS client configuration shared by the S3
// reader and writer, and performs the eager credential preflight the CLI runs
// before any data flows.

// Options narrows how the AWS configuration is resolved. The zero value uses
// the default credential and region chain (env, shared config, IMDS).
type Options struct {
	Region      string
	Profile     string
	Credentials aws.Credentials
}

// Load resolves an aws.Config from the default chain, applying any overrides
// in opts. Explicit static credentials take precedence over the chain.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// Preflight verifies that credentials can actually be resolved before any
// transfer starts. The returned error describes how to fix the environment.
func Preflight(ctx context.Context, opts Options) (aws.Config, error) {
	cfg, err := Load(ctx, opts)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws configuration could not be loaded: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("aws credentials are missing or invalid "+
			"(set AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, configure a profile, or attach a role): %w", err)
	}
	return cfg, nil
}
