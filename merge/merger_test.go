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
	"testing"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/dotpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink gathers drained records in order.
type collectSink struct {
	records []jexplode.Record
}

func (c *collectSink) Write(ctx context.Context, record jexplode.Record) error {
	c.records = append(c.records, record)
	return nil
}

func (c *collectSink) Flush() error { return nil }
func (c *collectSink) Close() error { return nil }

func newMerger(t *testing.T, opts MergerOptions) *Merger {
	t.Helper()
	if len(opts.KeyPath) == 0 {
		p, err := dotpath.Parse("id")
		require.NoError(t, err)
		opts.KeyPath = p
	}
	m, err := NewMerger(newStore(t), opts)
	require.NoError(t, err)
	return m
}

func TestMerger_GroupsByKey(t *testing.T) {
	m := newMerger(t, MergerOptions{})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"id":"b","tags":["x"]}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"id":"a","n":1}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"id":"b","tags":["y"]}`)))

	var sink collectSink
	n, err := m.Drain(ctx, &sink)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Drained in merge-id order.
	assert.Equal(t, rec(t, `{"merge_id":"a","n":1}`), sink.records[0])
	assert.Equal(t, rec(t, `{"merge_id":"b","tags":["x","y"]}`), sink.records[1])
}

func TestMerger_ArrayKeyMergesUnderEveryID(t *testing.T) {
	m := newMerger(t, MergerOptions{})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"id":["a","b"],"v":1}`)))

	var sink collectSink
	n, err := m.Drain(ctx, &sink)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, rec(t, `{"merge_id":"a","v":1}`), sink.records[0])
	assert.Equal(t, rec(t, `{"merge_id":"b","v":1}`), sink.records[1])
}

func TestMerger_JoinsMultipleStreams(t *testing.T) {
	// One merger outlives several input pipelines; records from different
	// streams sharing a key merge into one output record.
	m := newMerger(t, MergerOptions{})
	ctx := context.Background()

	// First stream.
	require.NoError(t, m.Write(ctx, rec(t, `{"id":"u1","name":"ada"}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"id":"u2","name":"bob"}`)))
	require.NoError(t, m.Close())

	// Second stream, same store.
	require.NoError(t, m.Write(ctx, rec(t, `{"id":"u1","role":"admin"}`)))
	require.NoError(t, m.Close())

	var sink collectSink
	n, err := m.Drain(ctx, &sink)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, rec(t, `{"merge_id":"u1","name":"ada","role":"admin"}`), sink.records[0])
	assert.Equal(t, rec(t, `{"merge_id":"u2","name":"bob"}`), sink.records[1])

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.RecordsIn)
}

func TestMerger_SkipsMissingAndBadKeys(t *testing.T) {
	m := newMerger(t, MergerOptions{})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"no_key":1}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"id":42}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"id":["ok",7]}`)))

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.RecordsIn)
	assert.Equal(t, int64(1), stats.MissingKey)
	assert.Equal(t, int64(2), stats.BadKeyType)
	assert.Equal(t, int64(0), stats.Upserts)
}

func TestMerger_NestedKeyAndCustomOutputField(t *testing.T) {
	keyPath, err := dotpath.Parse("meta.cve")
	require.NoError(t, err)
	outField, err := dotpath.Parse("cve_id")
	require.NoError(t, err)

	m := newMerger(t, MergerOptions{KeyPath: keyPath, OutField: outField})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"meta":{"cve":"CVE-1","src":"nvd"},"score":5}`)))
	require.NoError(t, m.Write(ctx, rec(t, `{"meta":{"cve":"CVE-1","src":"osv"},"score":7}`)))

	var sink collectSink
	_, err = m.Drain(ctx, &sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	got := sink.records[0]
	assert.Equal(t, "CVE-1", got["cve_id"])
	// Default Max strategy keeps the larger score.
	assert.Equal(t, float64(7), got["score"])
	// Key field removed, sibling metadata merged.
	assert.Equal(t, rec(t, `{"src":["nvd","osv"]}`)["src"], got["meta"].(map[string]interface{})["src"])
}

func TestMerger_KeepOriginalRetainsKeyField(t *testing.T) {
	m := newMerger(t, MergerOptions{KeepOriginal: true})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"id":"a","v":1}`)))

	var sink collectSink
	_, err := m.Drain(ctx, &sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "a", sink.records[0]["id"])
	assert.Equal(t, "a", sink.records[0]["merge_id"])
}

func TestMerger_EmptyStringKeyIgnored(t *testing.T) {
	m := newMerger(t, MergerOptions{})
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, rec(t, `{"id":"","v":1}`)))

	var sink collectSink
	n, err := m.Drain(ctx, &sink)
	require.NoError(t, err)
	assert.Zero(t, n)
}
