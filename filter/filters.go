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

package filter

import (
	"context"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/dotpath"
)

// Package filter provides reusable record filters for jexplode pipelines,
// addressed by dot path rather than by top-level field name.

// HasPath creates a filter that includes records where the path resolves to
// any value, including null.
func HasPath(path dotpath.Path) jexplode.Filter {
	return jexplode.FilterFunc(func(ctx context.Context, record jexplode.Record) (bool, error) {
		return path.Exists(record), nil
	})
}

// NotNull creates a filter that includes records where the path resolves to a
// non-null, non-empty-string value.
func NotNull(path dotpath.Path) jexplode.Filter {
	return jexplode.FilterFunc(func(ctx context.Context, record jexplode.Record) (bool, error) {
		value, ok := path.Get(record)
		if !ok || value == nil {
			return false, nil
		}
		if s, isStr := value.(string); isStr && s == "" {
			return false, nil
		}
		return true, nil
	})
}

// Not inverts a filter.
func Not(f jexplode.Filter) jexplode.Filter {
	return jexplode.FilterFunc(func(ctx context.Context, record jexplode.Record) (bool, error) {
		include, err := f.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		return !include, nil
	})
}

// All composes filters with AND semantics; an empty list includes everything.
func All(fs ...jexplode.Filter) jexplode.Filter {
	return jexplode.FilterFunc(func(ctx context.Context, record jexplode.Record) (bool, error) {
		for _, f := range fs {
			include, err := f.ShouldInclude(ctx, record)
			if err != nil || !include {
				return false, err
			}
		}
		return true, nil
	})
}
