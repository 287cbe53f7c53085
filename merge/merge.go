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

package merge

import (
	"encoding/json"
	"fmt"

	"github.com/jsonltools/jexplode"
)

// Package merge recombines exploded JSONL records: records sharing a value at
// a dot-path key are deep-merged into one, with a SQLite-backed store keeping
// memory bounded by one record regardless of how many keys the stream holds.

// Strategy selects how two numeric values merge.
type Strategy string

const (
	Sum       Strategy = "sum"
	Max       Strategy = "max"
	Min       Strategy = "min"
	Append    Strategy = "append"
	Overwrite Strategy = "overwrite"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Sum, Max, Min, Append, Overwrite:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("merge: unknown numeric strategy %q", s)
	}
}

// Deep merges src into a copy of dst, key by key. skipField names the merge
// identity field, which is never merged (every record in a group carries the
// same value there).
//
// Rules, per colliding key:
//   - two arrays concatenate and deduplicate, preserving first-seen order
//   - two objects merge recursively
//   - two equal strings stay a single string; different strings become a
//     deduplicated array
//   - a string and an array promote the string to an element and merge
//   - two numbers follow the Strategy
//   - any other differing pair becomes an array of the distinct values
func Deep(dst, src jexplode.Record, strategy Strategy, skipField string) jexplode.Record {
	merged := dst.Clone()

	for key, value := range src {
		if skipField != "" && key == skipField {
			continue
		}

		existing, ok := merged[key]
		if !ok {
			merged[key] = value
			continue
		}
		merged[key] = mergeValues(existing, value, strategy)
	}

	return merged
}

func mergeValues(existing, value interface{}, strategy Strategy) interface{} {
	switch ev := existing.(type) {
	case []interface{}:
		if arr, ok := value.([]interface{}); ok {
			return dedupConcat(ev, arr)
		}
		return dedupConcat(ev, []interface{}{value})
	case map[string]interface{}:
		if m, ok := value.(map[string]interface{}); ok {
			return map[string]interface{}(Deep(jexplode.Record(ev), jexplode.Record(m), strategy, ""))
		}
	case string:
		switch nv := value.(type) {
		case string:
			if ev == nv {
				return ev
			}
			return []interface{}{ev, nv}
		case []interface{}:
			return dedupConcat([]interface{}{existing}, nv)
		}
	case float64:
		if nv, ok := value.(float64); ok {
			return mergeNumbers(ev, nv, strategy)
		}
	}

	// Unhandled pairing: keep distinct values as an array.
	if canonical(existing) == canonical(value) {
		return existing
	}
	return []interface{}{existing, value}
}

func mergeNumbers(a, b float64, strategy Strategy) interface{} {
	switch strategy {
	case Sum:
		return a + b
	case Max:
		if a > b {
			return a
		}
		return b
	case Min:
		if a < b {
			return a
		}
		return b
	case Append:
		return []interface{}{a, b}
	default:
		return b
	}
}

// dedupConcat joins two slices, dropping later duplicates. Scalars and
// containers alike are compared by canonical compact JSON.
func dedupConcat(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, item := range a {
		key := canonical(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	for _, item := range b {
		key := canonical(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func canonical(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!%v", v)
	}
	return string(b)
}
