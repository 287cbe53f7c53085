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

package jexplode

import (
	"context"
)

// Package jexplode defines the core interfaces and types for the jexplode
// streaming JSONL toolkit.
//
// The toolkit processes newline-delimited JSON record by record: a DataSource
// streams records in, an Exploder turns each record into zero or more output
// records, optional Filters drop records, and a DataSink streams records out.

// Record represents a single data record in the pipeline.
// Each record is a map from field names to values, supporting heterogeneous data.
type Record map[string]interface{}

// Clone returns a shallow copy of the record. Nested containers are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DataSource defines the interface for record extraction.
// Implementations stream records from a source (stdin, local file, S3 object).
type DataSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the data source.
	Close() error
}

// DataSink defines the interface for record loading.
// Implementations write records to a destination (stdout, local file, S3 object).
type DataSink interface {
	// Write outputs a single record to the sink.
	Write(ctx context.Context, record Record) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the data sink.
	Close() error
}

// Exploder defines the interface for one-to-many record transformation.
// An Exploder maps each input record to zero or more output records, in order.
type Exploder interface {
	// Explode applies the transformation and returns the resulting records.
	// An empty slice drops the input record from the output stream.
	Explode(ctx context.Context, record Record) ([]Record, error)
}

// ExplodeFunc is a function adapter for the Exploder interface.
// Allows ordinary functions to be used as Exploders.
type ExplodeFunc func(ctx context.Context, record Record) ([]Record, error)

// Explode implements the Exploder interface for ExplodeFunc.
func (f ExplodeFunc) Explode(ctx context.Context, record Record) ([]Record, error) {
	return f(ctx, record)
}

// Filter defines the interface for record filtering.
// Filters determine whether a record should be included in the output.
type Filter interface {
	// ShouldInclude returns true if the record should be included in the output.
	ShouldInclude(ctx context.Context, record Record) (bool, error)
}

// FilterFunc is a function adapter for the Filter interface.
// Allows ordinary functions to be used as Filters.
type FilterFunc func(ctx context.Context, record Record) (bool, error)

// ShouldInclude implements the Filter interface for FilterFunc.
func (f FilterFunc) ShouldInclude(ctx context.Context, record Record) (bool, error) {
	return f(ctx, record)
}
