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
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/jsonltools/jexplode/endpoint"
)

// Open resolves an endpoint descriptor into a JSONWriter, wiring in gzip
// compression when the descriptor's name carries a compressed suffix.
// s3Options apply only to S3 endpoints and are ignored otherwise; that
// includes any server-side encryption key, which only an S3 sink honors.
func Open(ctx context.Context, ep endpoint.Endpoint, s3Options ...WriterOptionS3) (*JSONWriter, error) {
	var wc io.WriteCloser

	switch ep.Kind {
	case endpoint.Stdio:
		wc = nopWriteCloser{os.Stdout}
	case endpoint.File:
		f, err := os.Create(ep.Raw)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", ep.Raw, err)
		}
		wc = f
	case endpoint.S3:
		up, err := OpenS3Object(ctx, append([]WriterOptionS3{
			WithS3WriteBucket(ep.Bucket),
			WithS3WriteKey(ep.Key),
		}, s3Options...)...)
		if err != nil {
			return nil, err
		}
		wc = up
	default:
		return nil, fmt.Errorf("open output: unsupported endpoint kind %s", ep.Kind)
	}

	if ep.Gzip {
		wc = &gzipWriteCloser{zw: gzip.NewWriter(wc), under: wc}
	}

	return NewJSONWriter(wc), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// gzipWriteCloser closes the compressor before the stream beneath it so the
// gzip trailer lands in the output.
type gzipWriteCloser struct {
	zw    *gzip.Writer
	under io.WriteCloser
}

func (g *gzipWriteCloser) Write(p []byte) (int, error) {
	return g.zw.Write(p)
}

func (g *gzipWriteCloser) Close() error {
	err := g.zw.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}
