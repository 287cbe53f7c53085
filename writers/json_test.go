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

package writers

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/jsonltools/jexplode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock writer for testing
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	failClose bool
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.closed = true
	if m.failClose {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{Builder: &strings.Builder{}}
}

func TestJSONWriter_BasicFunctionality(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)
	ctx := context.Background()

	record := jexplode.Record{
		"id":   1,
		"name": "John Doe",
	}
	require.NoError(t, writer.Write(ctx, record))
	require.NoError(t, writer.Close())

	output := mock.String()
	assert.Contains(t, output, `"id":1`)
	assert.Contains(t, output, `"name":"John Doe"`)
	assert.True(t, strings.HasSuffix(output, "\n"))
	assert.True(t, mock.closed)
}

func TestJSONWriter_OneCompactLinePerRecord(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)
	ctx := context.Background()

	require.NoError(t, writer.Write(ctx, jexplode.Record{"a": 1}))
	require.NoError(t, writer.Write(ctx, jexplode.Record{"b": map[string]interface{}{"c": []interface{}{1, 2}}}))
	require.NoError(t, writer.Close())

	lines := strings.Split(strings.TrimRight(mock.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var v map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &v))
		assert.NotContains(t, line, "\n")
	}
}

func TestJSONWriter_FlushBeforeClose(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)

	require.NoError(t, writer.Write(context.Background(), jexplode.Record{"a": 1}))
	// Buffered: nothing reaches the mock until Flush.
	assert.Empty(t, mock.String())
	require.NoError(t, writer.Flush())
	assert.NotEmpty(t, mock.String())
}

func TestJSONWriter_WriteFailure(t *testing.T) {
	mock := newMockWriteCloser()
	mock.failWrite = true
	writer := NewJSONWriter(mock)

	// The bufio layer surfaces the failure at flush time.
	require.NoError(t, writer.Write(context.Background(), jexplode.Record{"a": 1}))
	assert.Error(t, writer.Flush())
}

func TestJSONWriter_UnmarshalableRecord(t *testing.T) {
	writer := NewJSONWriter(newMockWriteCloser())

	err := writer.Write(context.Background(), jexplode.Record{"bad": func() {}})
	assert.Error(t, err)
}

func TestJSONWriter_CloseError(t *testing.T) {
	mock := newMockWriteCloser()
	mock.failClose = true
	writer := NewJSONWriter(mock)

	assert.Error(t, writer.Close())
}
