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
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/endpoint"
)

func TestOpen_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	ep, err := endpoint.Parse(path)
	require.NoError(t, err)

	writer, err := Open(context.Background(), ep)
	require.NoError(t, err)
	require.NoError(t, writer.Write(context.Background(), jexplode.Record{"a": 1}))
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`+"\n", string(data))
}

func TestOpen_GzipFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl.gz")
	ep, err := endpoint.Parse(path)
	require.NoError(t, err)
	require.True(t, ep.Gzip)

	writer, err := Open(context.Background(), ep)
	require.NoError(t, err)
	require.NoError(t, writer.Write(context.Background(), jexplode.Record{"a": 1}))
	require.NoError(t, writer.Write(context.Background(), jexplode.Record{"a": 2}))
	require.NoError(t, writer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`+"\n"+`{"a":2}`+"\n", string(data))
}

func TestOpen_UncreatableFile(t *testing.T) {
	ep, err := endpoint.Parse(filepath.Join(t.TempDir(), "no", "such", "dir", "out.jsonl"))
	require.NoError(t, err)

	_, err = Open(context.Background(), ep)
	assert.Error(t, err)
}

func TestOpenS3Object_RequiresBucketAndKey(t *testing.T) {
	ctx := context.Background()

	_, err := OpenS3Object(ctx, WithS3WriteKey("k"))
	require.Error(t, err)
	var werr *S3WriterError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "validate_options", werr.Op)

	_, err = OpenS3Object(ctx, WithS3WriteBucket("b"))
	require.Error(t, err)
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "validate_options", werr.Op)
}

func TestS3WriterOptions(t *testing.T) {
	opts := S3WriterOptions{}
	for _, apply := range []WriterOptionS3{
		WithS3WriteBucket("b"),
		WithS3WriteKey("k"),
		WithS3WriteRegion("eu-west-1"),
		WithS3WriteProfile("p"),
		WithS3WriteEndpoint("http://localhost:9000"),
		WithS3WritePathStyle(true),
		WithSSEKMSKeyID("alias/stream-key"),
	} {
		apply(&opts)
	}

	assert.Equal(t, "b", opts.Bucket)
	assert.Equal(t, "k", opts.Key)
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "p", opts.Profile)
	assert.Equal(t, "http://localhost:9000", opts.EndpointURL)
	assert.True(t, opts.ForcePathStyle)
	assert.Equal(t, "alias/stream-key", opts.SSEKMSKeyID)
}

func TestS3WriterError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &S3WriterError{Op: "upload", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "upload")
}
