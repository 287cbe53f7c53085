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

package explode

import (
	"context"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/dotpath"
)

// Package explode implements the path-explode transformation: resolve a dot
// path within each record and fan the record out on the value found there.

// DefaultField is the output field name used when none is configured.
const DefaultField = "new_id"

// Exploder resolves a path in each record and rewrites the record around the
// value found there. The resolved value is classified three ways:
//
//   - absent: the record passes through unchanged
//   - array: one output record per element, in element order, each a copy of
//     the record minus the path plus the element under the output field; an
//     empty array drops the record entirely
//   - anything else (scalar, object, null): one output record with the path
//     renamed to the output field
//
// An object or null found at the path is assigned wholesale, never recursed
// into.
type Exploder struct {
	path  dotpath.Path
	field string
}

// New builds an Exploder for the given raw dot path. The output field name
// defaults to DefaultField when field is empty.
func New(rawPath, field string) (*Exploder, error) {
	path, err := dotpath.Parse(rawPath)
	if err != nil {
		return nil, err
	}
	if field == "" {
		field = DefaultField
	}
	return &Exploder{path: path, field: field}, nil
}

// Path returns the parsed path the Exploder resolves.
func (e *Exploder) Path() dotpath.Path {
	return e.path
}

// Explode implements jexplode.Exploder.
func (e *Exploder) Explode(ctx context.Context, record jexplode.Record) ([]jexplode.Record, error) {
	value, ok := e.path.Get(record)
	if !ok {
		return []jexplode.Record{record}, nil
	}

	base := e.path.Remove(record)

	arr, isArray := value.([]interface{})
	if !isArray {
		out := jexplode.Record(base)
		out[e.field] = value
		return []jexplode.Record{out}, nil
	}

	outputs := make([]jexplode.Record, 0, len(arr))
	for _, elem := range arr {
		out := jexplode.Record(base).Clone()
		out[e.field] = elem
		outputs = append(outputs, out)
	}
	return outputs, nil
}
