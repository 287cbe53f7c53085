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

package dotpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Package dotpath resolves dot-separated paths like "a.b.2.c" against parsed
// JSON values. Each segment addresses either a map key or, when it parses as a
// non-negative integer, an array index. Resolution is purely structural: a
// path that does not correspond to a value is absent, never an error.

// Segment is one step of a Path: a map key, or an array index when Index is
// true. Integer-looking segments are always treated as indices; a map key
// that merely looks numeric cannot be addressed. That is fixed behavior.
type Segment struct {
	Key   string
	Idx   int
	Index bool
}

func (s Segment) String() string {
	return s.Key
}

// Path is a parsed dot path. A Path is immutable after Parse.
type Path []Segment

// Parse splits raw on "." and classifies each segment. An empty path or an
// empty segment (leading, trailing, or doubled dot) is an error.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("dotpath: empty path")
	}
	parts := strings.Split(raw, ".")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("dotpath: empty segment in %q", raw)
		}
		seg := Segment{Key: part}
		if idx, err := strconv.Atoi(part); err == nil && idx >= 0 {
			seg.Idx = idx
			seg.Index = true
		}
		path = append(path, seg)
	}
	return path, nil
}

// String reassembles the path in its original dot form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.Key
	}
	return strings.Join(parts, ".")
}

// step navigates one segment into v. The second result is false when the
// segment is missing or v has the wrong shape for it.
func step(v interface{}, seg Segment) (interface{}, bool) {
	if seg.Index {
		arr, ok := v.([]interface{})
		if !ok || seg.Idx >= len(arr) {
			return nil, false
		}
		return arr[seg.Idx], true
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	child, ok := m[seg.Key]
	if !ok {
		return nil, false
	}
	return child, true
}

// Get returns the value at p within root, and whether it exists.
func (p Path) Get(root map[string]interface{}) (interface{}, bool) {
	var v interface{} = root
	for _, seg := range p {
		child, ok := step(v, seg)
		if !ok {
			return nil, false
		}
		v = child
	}
	return v, true
}

// Exists reports whether p resolves to a value within root.
func (p Path) Exists(root map[string]interface{}) bool {
	_, ok := p.Get(root)
	return ok
}

// Remove returns a copy of root with the value at p removed. The containers
// along the removed spine are copied so root is never mutated; untouched
// subtrees are shared with the input. When p does not resolve, the result is
// a plain top-level copy of root.
//
// Removing an array element shrinks the array; later elements shift down.
func (p Path) Remove(root map[string]interface{}) map[string]interface{} {
	if !p.Exists(root) {
		out := make(map[string]interface{}, len(root))
		for k, v := range root {
			out[k] = v
		}
		return out
	}
	return removeIn(root, p).(map[string]interface{})
}

// Set writes value at p within root, creating intermediate maps as needed.
// Unlike Get and Remove it mutates root in place. Index segments cannot be
// created on demand, so a path containing one is an error; so is descending
// into an existing non-map value.
func (p Path) Set(root map[string]interface{}, value interface{}) error {
	m := root
	for _, seg := range p[:len(p)-1] {
		if seg.Index {
			return fmt.Errorf("dotpath: cannot set through index segment %q in %q", seg.Key, p)
		}
		child, ok := m[seg.Key]
		if !ok {
			next := make(map[string]interface{})
			m[seg.Key] = next
			m = next
			continue
		}
		childMap, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("dotpath: %q is not an object, cannot set %q", seg.Key, p)
		}
		m = childMap
	}
	last := p[len(p)-1]
	if last.Index {
		return fmt.Errorf("dotpath: cannot set through index segment %q in %q", last.Key, p)
	}
	m[last.Key] = value
	return nil
}

// removeIn rewrites one level of the spine. The path is known to resolve.
func removeIn(v interface{}, p Path) interface{} {
	seg := p[0]
	if seg.Index {
		arr := v.([]interface{})
		out := make([]interface{}, 0, len(arr))
		for i, elem := range arr {
			if i == seg.Idx {
				if len(p) > 1 {
					out = append(out, removeIn(elem, p[1:]))
				}
				continue
			}
			out = append(out, elem)
		}
		return out
	}
	m := v.(map[string]interface{})
	out := make(map[string]interface{}, len(m))
	for k, val := range m {
		if k == seg.Key {
			if len(p) > 1 {
				out[k] = removeIn(val, p[1:])
			}
			continue
		}
		out[k] = val
	}
	return out
}
