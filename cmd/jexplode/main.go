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

// Command jexplode extracts a dot-path value from each record of a JSONL
// stream and explodes it: arrays fan out to one record per element, scalars
// are renamed into the output field. Input and output are "-", a local file
// (optionally .gz/.gzip), or an s3://bucket/key URI.
//
// Usage:
//
//	jexplode "<dot.path>" <input> <output> [<kms-key-id>]
//
// The optional KMS key id requests server-side encryption and applies only
// when the output is an S3 URI. The output field name defaults to "new_id"
// and can be overridden with the JEXPLODE_FIELD environment variable.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/awsconfig"
	"github.com/jsonltools/jexplode/endpoint"
	"github.com/jsonltools/jexplode/explode"
	"github.com/jsonltools/jexplode/readers"
	"github.com/jsonltools/jexplode/writers"
)

const usage = `usage: jexplode "<dot.path>" <input> <output> [<kms-key-id>]

  <dot.path>      dot-separated path into each JSON record; integer segments
                  address array elements (a.b.2.c)
  <input>         "-" for stdin, a local file, or s3://bucket/key
  <output>        "-" for stdout, a local file, or s3://bucket/key
  <kms-key-id>    optional KMS key (id, ARN, or alias) for server-side
                  encryption; only honored for an S3 output

Names ending in .gz or .gzip are read and written gzip-compressed.
`

func main() {
	// A local .env may carry AWS_* settings; absence is fine.
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "jexplode: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("expected 3 or 4 arguments, got %d", len(args))
	}

	rawPath, rawIn, rawOut := args[0], args[1], args[2]
	kmsKeyID := ""
	if len(args) == 4 {
		kmsKeyID = args[3]
	}

	exploder, err := explode.New(rawPath, os.Getenv("JEXPLODE_FIELD"))
	if err != nil {
		return err
	}

	in, err := endpoint.Parse(rawIn)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	out, err := endpoint.Parse(rawOut)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	ctx := context.Background()

	// Credentials are checked before any data flows, so a misconfigured
	// environment fails immediately instead of mid-transfer.
	var readerOpts []readers.ReaderOptionS3
	var writerOpts []writers.WriterOptionS3
	if in.IsS3() || out.IsS3() {
		cfg, err := awsconfig.Preflight(ctx, awsconfig.Options{
			Region:  os.Getenv("AWS_REGION"),
			Profile: os.Getenv("AWS_PROFILE"),
		})
		if err != nil {
			return err
		}
		readerOpts = append(readerOpts, readers.WithS3Config(cfg))
		writerOpts = append(writerOpts, writers.WithS3WriteConfig(cfg))
	}
	if kmsKeyID != "" && out.IsS3() {
		writerOpts = append(writerOpts, writers.WithSSEKMSKeyID(kmsKeyID))
	}

	source, err := readers.Open(ctx, in, readerOpts...)
	if err != nil {
		return err
	}

	sink, err := writers.Open(ctx, out, writerOpts...)
	if err != nil {
		source.Close()
		return err
	}

	pipeline, err := jexplode.NewPipeline().
		From(source).
		Explode(exploder).
		To(sink).
		Build()
	if err != nil {
		return err
	}

	if err := pipeline.Execute(ctx); err != nil {
		return err
	}

	recordsIn, recordsOut := pipeline.Stats()
	fmt.Fprintf(os.Stderr, "jexplode: %d records in, %d records out\n", recordsIn, recordsOut)
	return nil
}
