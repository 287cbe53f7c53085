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
	"context"
	"fmt"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/dotpath"
)

// MergerOptions configures a Merger.
type MergerOptions struct {
	// KeyPath locates the merge identity within each record. A string value
	// merges under that one id; an array of strings merges the record under
	// every id it lists.
	KeyPath dotpath.Path
	// OutField is the dot path the merge id is written to in the output
	// (default "merge_id").
	OutField dotpath.Path
	// Strategy governs numeric collisions (default Max).
	Strategy Strategy
	// KeepOriginal retains the key field in merged output instead of
	// removing it.
	KeepOriginal bool
}

// MergerStats counts what the merger saw.
type MergerStats struct {
	RecordsIn  int64 // records consumed
	MissingKey int64 // records with no resolvable merge key, skipped
	BadKeyType int64 // records whose key was neither string nor string array, skipped
	Upserts    int64 // store upserts performed
}

// Merger is a jexplode.DataSink that folds each incoming record into the
// store under its merge key instead of emitting it. After the pipeline
// finishes, Drain streams the merged records, ordered by merge id, into a
// real sink.
type Merger struct {
	store *Store
	opts  MergerOptions
	stats MergerStats
}

// NewMerger builds a Merger over store.
func NewMerger(store *Store, opts MergerOptions) (*Merger, error) {
	if len(opts.KeyPath) == 0 {
		return nil, fmt.Errorf("merge: key path is required")
	}
	if len(opts.OutField) == 0 {
		p, err := dotpath.Parse("merge_id")
		if err != nil {
			return nil, err
		}
		opts.OutField = p
	}
	if opts.Strategy == "" {
		opts.Strategy = Max
	}
	return &Merger{store: store, opts: opts}, nil
}

// Stats returns the merge counters.
func (m *Merger) Stats() MergerStats {
	return m.stats
}

// Write implements the DataSink interface: it merges instead of emitting.
// Records without a resolvable key, or with a key of an unsupported shape,
// are skipped rather than failing the run, matching explode's treatment of
// absent paths as a structural fact rather than an error.
func (m *Merger) Write(ctx context.Context, record jexplode.Record) error {
	m.stats.RecordsIn++

	raw, ok := m.opts.KeyPath.Get(record)
	if !ok || raw == nil {
		m.stats.MissingKey++
		return nil
	}

	var ids []string
	switch v := raw.(type) {
	case string:
		ids = []string{v}
	case []interface{}:
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				m.stats.BadKeyType++
				return nil
			}
			ids = append(ids, s)
		}
	default:
		m.stats.BadKeyType++
		return nil
	}

	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := m.mergeOne(ctx, id, record); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) mergeOne(ctx context.Context, id string, record jexplode.Record) error {
	incoming := jexplode.Record(m.opts.KeyPath.Remove(record))
	if m.opts.KeepOriginal {
		incoming = record.Clone()
	}
	if err := m.opts.OutField.Set(incoming, id); err != nil {
		return fmt.Errorf("merge: set output field: %w", err)
	}

	existing, found, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	merged := incoming
	if found {
		merged = Deep(jexplode.Record(existing), incoming, m.opts.Strategy, m.opts.OutField.String())
	}

	if err := m.store.Put(ctx, id, merged); err != nil {
		return err
	}
	m.stats.Upserts++
	return nil
}

// Flush implements the DataSink interface.
func (m *Merger) Flush() error {
	return m.store.Commit()
}

// Close implements the DataSink interface. The store stays open so Drain can
// run after the merging pipeline has finished; closing the store is the
// caller's job.
func (m *Merger) Close() error {
	return m.store.Commit()
}

// Drain streams every merged record, ordered by merge id, into sink. The sink
// is flushed but not closed.
func (m *Merger) Drain(ctx context.Context, sink jexplode.DataSink) (int64, error) {
	var n int64
	err := m.store.Each(ctx, func(id string, record map[string]interface{}) error {
		if err := sink.Write(ctx, jexplode.Record(record)); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, sink.Flush()
}
