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

package analyze

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jsonltools/jexplode"
)

// Package analyze inspects the shape of a JSONL stream before a merge or
// explode run: which top-level fields occur and how often, which nested dot
// paths exist at all, and what the first few records look like.

// FieldCount pairs a top-level field with its occurrence count.
type FieldCount struct {
	Field string
	Count int64
}

// Report summarizes the structure of a record stream.
type Report struct {
	Records     int64
	FieldCounts []FieldCount // sorted by count descending, then name
	NestedPaths []string     // sorted dot paths reachable through objects
	Samples     []jexplode.Record
}

const maxSamples = 5

// Run consumes source to exhaustion and builds a Report. The source is not
// closed.
func Run(ctx context.Context, source jexplode.DataSource) (*Report, error) {
	counts := make(map[string]int64)
	nested := make(map[string]struct{})
	report := &Report{}

	for {
		record, err := source.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		report.Records++
		for field := range record {
			counts[field]++
		}
		collectPaths(record, "", nested)

		if len(report.Samples) < maxSamples {
			report.Samples = append(report.Samples, record.Clone())
		}
	}

	for field, count := range counts {
		report.FieldCounts = append(report.FieldCounts, FieldCount{Field: field, Count: count})
	}
	sort.Slice(report.FieldCounts, func(i, j int) bool {
		if report.FieldCounts[i].Count != report.FieldCounts[j].Count {
			return report.FieldCounts[i].Count > report.FieldCounts[j].Count
		}
		return report.FieldCounts[i].Field < report.FieldCounts[j].Field
	})

	report.NestedPaths = make([]string, 0, len(nested))
	for path := range nested {
		report.NestedPaths = append(report.NestedPaths, path)
	}
	sort.Strings(report.NestedPaths)

	return report, nil
}

// collectPaths records every dot path reachable through nested objects.
// Arrays are terminal here, matching how a merge key is usually addressed.
func collectPaths(v map[string]interface{}, prefix string, into map[string]struct{}) {
	for key, child := range v {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		into[path] = struct{}{}
		if m, ok := child.(map[string]interface{}); ok {
			collectPaths(m, path, into)
		}
	}
}

// HasPath reports whether the report saw the given dot path.
func (r *Report) HasPath(path string) bool {
	for _, p := range r.NestedPaths {
		if p == path {
			return true
		}
	}
	return false
}

// SimilarPaths lists seen paths whose last segment matches the last segment
// of path, used to suggest a fix for a mistyped merge key.
func (r *Report) SimilarPaths(path string) []string {
	segs := strings.Split(path, ".")
	leaf := segs[len(segs)-1]
	var out []string
	for _, p := range r.NestedPaths {
		if p != path && strings.Contains(p, leaf) {
			out = append(out, p)
		}
	}
	return out
}

// WriteTo prints a human-readable summary, most common fields first.
func (r *Report) WriteTo(w io.Writer) {
	fmt.Fprintf(w, "records: %d\n", r.Records)

	fmt.Fprintln(w, "top-level fields:")
	limit := len(r.FieldCounts)
	if limit > 20 {
		limit = 20
	}
	for _, fc := range r.FieldCounts[:limit] {
		fmt.Fprintf(w, "  %-30s %d\n", fc.Field, fc.Count)
	}

	fmt.Fprintf(w, "nested paths (%d):\n", len(r.NestedPaths))
	for i, path := range r.NestedPaths {
		if i == 20 {
			fmt.Fprintf(w, "  ... %d more\n", len(r.NestedPaths)-i)
			break
		}
		fmt.Fprintf(w, "  %s\n", path)
	}
}
