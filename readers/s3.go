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

package readers

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jsonltools/jexplode/awsconfig"
)

// S3ReaderError provides structured error information for S3 reader operations.
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "validate_options", "get_object")
	Err error  // Underlying error
}

func (e *S3ReaderError) Error() string {
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderOptions configures the S3 object reader.
type S3ReaderOptions struct {
	Bucket         string          // S3 bucket name
	Key            string          // Object key to stream
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	Config         *aws.Config     // Pre-resolved configuration (skips the default chain)
}

// ReaderOptionS3 represents a configuration function for the S3 object reader.
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Bucket(bucket string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Bucket = bucket
	}
}

func WithS3Key(key string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Key = key
	}
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Region = region
	}
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Profile = profile
	}
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Credentials = creds
	}
}

func WithS3Endpoint(endpoint string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3PathStyle(pathStyle bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// WithS3Config supplies an already-resolved aws.Config, typically the one the
// CLI validated during its credential preflight.
func WithS3Config(cfg aws.Config) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Config = &cfg
	}
}

// OpenS3Object streams a single object from S3 as an io.ReadCloser. Unlike a
// download-then-read approach there is no local staging: the returned reader
// is the GetObject body itself, so memory stays bounded by socket buffers.
func OpenS3Object(ctx context.Context, options ...ReaderOptionS3) (io.ReadCloser, error) {
	opts := S3ReaderOptions{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}
	if opts.Key == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("key is required")}
	}

	var cfg aws.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		var err error
		cfg, err = awsconfig.Load(ctx, awsconfig.Options{
			Region:      opts.Region,
			Profile:     opts.Profile,
			Credentials: opts.Credentials,
		})
		if err != nil {
			return nil, &S3ReaderError{Op: "create_aws_config", Err: err}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
	})
	if err != nil {
		return nil, &S3ReaderError{Op: "get_object", Err: err}
	}

	return out.Body, nil
}
