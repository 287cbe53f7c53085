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

package writers

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jsonltools/jexplode/awsconfig"
)

// S3WriterError provides structured error information for S3 writer operations.
type S3WriterError struct {
	Op  string // Operation that failed (e.g., "validate_options", "upload")
	Err error  // Underlying error
}

func (e *S3WriterError) Error() string {
	return fmt.Sprintf("s3 writer %s: %v", e.Op, e.Err)
}

func (e *S3WriterError) Unwrap() error {
	return e.Err
}

// S3WriterOptions configures the S3 object writer.
type S3WriterOptions struct {
	Bucket         string          // S3 bucket name
	Key            string          // Object key to write
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	SSEKMSKeyID    string          // Server-side encryption key (id, ARN, or alias)
	Config         *aws.Config     // Pre-resolved configuration (skips the default chain)
}

// WriterOptionS3 represents a configuration function for the S3 object writer.
type WriterOptionS3 func(*S3WriterOptions)

func WithS3WriteBucket(bucket string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Bucket = bucket
	}
}

func WithS3WriteKey(key string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Key = key
	}
}

func WithS3WriteRegion(region string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Region = region
	}
}

func WithS3WriteProfile(profile string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Profile = profile
	}
}

func WithS3WriteCredentials(creds aws.Credentials) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Credentials = creds
	}
}

func WithS3WriteEndpoint(endpoint string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3WritePathStyle(pathStyle bool) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// WithSSEKMSKeyID requests server-side encryption with the given KMS key
// identifier. An empty identifier leaves the upload's encryption settings
// untouched.
func WithSSEKMSKeyID(keyID string) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.SSEKMSKeyID = keyID
	}
}

// WithS3WriteConfig supplies an already-resolved aws.Config, typically the
// one the CLI validated during its credential preflight.
func WithS3WriteConfig(cfg aws.Config) WriterOptionS3 {
	return func(opts *S3WriterOptions) {
		opts.Config = &cfg
	}
}

// OpenS3Object opens a streaming writer onto an S3 object. Bytes written flow
// through an in-process pipe into the upload manager, which handles multipart
// assembly; nothing is staged on local disk. Close finishes the upload and
// reports its error, so callers must check it.
func OpenS3Object(ctx context.Context, options ...WriterOptionS3) (io.WriteCloser, error) {
	opts := S3WriterOptions{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3WriterError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}
	if opts.Key == "" {
		return nil, &S3WriterError{Op: "validate_options", Err: fmt.Errorf("key is required")}
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
			return nil, &S3WriterError{Op: "create_aws_config", Err: err}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})
	uploader := manager.NewUploader(client)

	input := &s3.PutObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
	}
	if opts.SSEKMSKeyID != "" {
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(opts.SSEKMSKeyID)
	}

	pr, pw := io.Pipe()
	input.Body = pr

	w := &s3UploadWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := uploader.Upload(ctx, input)
		if err != nil {
			// Unblock a writer stuck on a full pipe.
			pr.CloseWithError(err)
		}
		w.done <- err
	}()

	return w, nil
}

// s3UploadWriter feeds the upload goroutine through a pipe and joins it on
// Close.
type s3UploadWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *s3UploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3UploadWriter) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	if err := <-w.done; err != nil {
		return &S3WriterError{Op: "upload", Err: err}
	}
	return nil
}
