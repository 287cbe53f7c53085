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

package endpoint

import (
	"fmt"
	"strings"
)

// Package endpoint classifies source and sink designators. A designator is
// "-" for the process's standard stream, an s3://bucket/key URI, or a local
// file path. Designators whose name ends in a gzip suffix are flagged as
// compressed. Endpoints are resolved once per run and immutable thereafter.

// Kind identifies which of the three endpoint families a designator names.
type Kind int

const (
	// Stdio reads the process's stdin or writes its stdout.
	Stdio Kind = iota
	// File reads or writes a local file.
	File
	// S3 streams an object from or to S3.
	S3
)

func (k Kind) String() string {
	switch k {
	case Stdio:
		return "stdio"
	case File:
		return "file"
	case S3:
		return "s3"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	stdioMarker = "-"
	s3Scheme    = "s3://"
)

// Endpoint is a resolved designator.
type Endpoint struct {
	Kind Kind
	Raw  string
	// Bucket and Key are set only for S3 endpoints.
	Bucket string
	Key    string
	// Gzip reports whether the designator carries a recognized gzip suffix.
	// Never set for Stdio.
	Gzip bool
}

// Parse resolves a raw designator into an Endpoint. "-" is the standard
// stream; s3://bucket/key is an S3 object; anything else is a local path.
func Parse(raw string) (Endpoint, error) {
	if raw == "" {
		return Endpoint{}, fmt.Errorf("endpoint: empty designator")
	}
	if raw == stdioMarker {
		return Endpoint{Kind: Stdio, Raw: raw}, nil
	}
	if strings.HasPrefix(raw, s3Scheme) {
		rest := strings.TrimPrefix(raw, s3Scheme)
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return Endpoint{}, fmt.Errorf("endpoint: %q is not of the form s3://bucket/key", raw)
		}
		return Endpoint{
			Kind:   S3,
			Raw:    raw,
			Bucket: bucket,
			Key:    key,
			Gzip:   hasGzipSuffix(key),
		}, nil
	}
	return Endpoint{Kind: File, Raw: raw, Gzip: hasGzipSuffix(raw)}, nil
}

func hasGzipSuffix(name string) bool {
	return strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".gzip")
}

// IsS3 reports whether the endpoint is object storage.
func (e Endpoint) IsS3() bool {
	return e.Kind == S3
}
