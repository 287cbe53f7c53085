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
	"testing"

	"github.com/jsonltools/jexplode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(t *testing.T, s string) jexplode.Record {
	t.Helper()
	var r jexplode.Record
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"sum", "max", "min", "append", "overwrite"} {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, Strategy(name), s)
	}

	_, err := ParseStrategy("mean")
	assert.Error(t, err)
}

func TestDeep_DisjointKeys(t *testing.T) {
	out := Deep(rec(t, `{"a":1}`), rec(t, `{"b":2}`), Max, "")
	assert.Equal(t, rec(t, `{"a":1,"b":2}`), out)
}

func TestDeep_SkipsMergeField(t *testing.T) {
	out := Deep(rec(t, `{"merge_id":"x","a":1}`), rec(t, `{"merge_id":"y","b":2}`), Max, "merge_id")
	assert.Equal(t, rec(t, `{"merge_id":"x","a":1,"b":2}`), out)
}

func TestDeep_ListsConcatAndDedup(t *testing.T) {
	out := Deep(rec(t, `{"l":[1,2,{"k":1}]}`), rec(t, `{"l":[2,3,{"k":1}]}`), Max, "")
	assert.Equal(t, rec(t, `{"l":[1,2,{"k":1},3]}`), out)
}

func TestDeep_MapsRecurse(t *testing.T) {
	out := Deep(rec(t, `{"m":{"a":1,"s":"x"}}`), rec(t, `{"m":{"b":2,"s":"x"}}`), Max, "")
	assert.Equal(t, rec(t, `{"m":{"a":1,"b":2,"s":"x"}}`), out)
}

func TestDeep_Strings(t *testing.T) {
	// Equal strings stay scalar.
	out := Deep(rec(t, `{"s":"x"}`), rec(t, `{"s":"x"}`), Max, "")
	assert.Equal(t, rec(t, `{"s":"x"}`), out)

	// Different strings promote to an array.
	out = Deep(rec(t, `{"s":"x"}`), rec(t, `{"s":"y"}`), Max, "")
	assert.Equal(t, rec(t, `{"s":["x","y"]}`), out)
}

func TestDeep_StringListMixes(t *testing.T) {
	out := Deep(rec(t, `{"v":"x"}`), rec(t, `{"v":["x","y"]}`), Max, "")
	assert.Equal(t, rec(t, `{"v":["x","y"]}`), out)

	out = Deep(rec(t, `{"v":["x","y"]}`), rec(t, `{"v":"z"}`), Max, "")
	assert.Equal(t, rec(t, `{"v":["x","y","z"]}`), out)
}

func TestDeep_NumericStrategies(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{Sum, `{"n":7}`},
		{Max, `{"n":5}`},
		{Min, `{"n":2}`},
		{Append, `{"n":[5,2]}`},
		{Overwrite, `{"n":2}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			out := Deep(rec(t, `{"n":5}`), rec(t, `{"n":2}`), tt.strategy, "")
			assert.Equal(t, rec(t, tt.want), out)
		})
	}
}

func TestDeep_MixedTypeConflictBecomesArray(t *testing.T) {
	out := Deep(rec(t, `{"v":1}`), rec(t, `{"v":"x"}`), Max, "")
	assert.Equal(t, rec(t, `{"v":[1,"x"]}`), out)
}

func TestDeep_EqualValuesStayScalar(t *testing.T) {
	out := Deep(rec(t, `{"v":true}`), rec(t, `{"v":true}`), Max, "")
	assert.Equal(t, rec(t, `{"v":true}`), out)
}

func TestDeep_DoesNotMutateInputs(t *testing.T) {
	dst := rec(t, `{"a":1}`)
	src := rec(t, `{"b":2}`)
	_ = Deep(dst, src, Max, "")

	assert.Equal(t, rec(t, `{"a":1}`), dst)
	assert.Equal(t, rec(t, `{"b":2}`), src)
}
