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
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/jsonltools/jexplode/endpoint"
)

// Open resolves an endpoint descriptor into a JSONReader, wiring in gzip
// decompression when the descriptor's name carries a compressed suffix.
// s3Options apply only to S3 endpoints and are ignored otherwise.
func Open(ctx context.Context, ep endpoint.Endpoint, s3Options ...ReaderOptionS3) (*JSONReader, error) {
	var rc io.ReadCloser

	switch ep.Kind {
	case endpoint.Stdio:
		rc = io.NopCloser(os.Stdin)
	case endpoint.File:
		f, err := os.Open(ep.Raw)
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", ep.Raw, err)
		}
		rc = f
	case endpoint.S3:
		body, err := OpenS3Object(ctx, append([]ReaderOptionS3{
			WithS3Bucket(ep.Bucket),
			WithS3Key(ep.Key),
		}, s3Options...)...)
		if err != nil {
			return nil, err
		}
		rc = body
	default:
		return nil, fmt.Errorf("open input: unsupported endpoint kind %s", ep.Kind)
	}

	if ep.Gzip {
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("open gzip input %s: %w", ep.Raw, err)
		}
		rc = &gzipReadCloser{zr: zr, under: rc}
	}

	return NewJSONReader(rc), nil
}

// gzipReadCloser closes both the decompressor and the stream beneath it.
type gzipReadCloser struct {
	zr    *gzip.Reader
	under io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	err := g.zr.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}
