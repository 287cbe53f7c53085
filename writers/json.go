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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jsonltools/jexplode"
)

// JSONWriter implements jexplode.DataSink for newline-delimited JSON output.
// Records are written compact, one per line.
type JSONWriter struct {
	bw     *bufio.Writer
	closer io.Closer
}

// NewJSONWriter creates a buffered JSON lines writer. Closing the writer
// flushes the buffer and closes w.
func NewJSONWriter(w io.WriteCloser) *JSONWriter {
	return &JSONWriter{
		bw:     bufio.NewWriter(w),
		closer: w,
	}
}

// Write implements the DataSink interface.
func (j *JSONWriter) Write(ctx context.Context, record jexplode.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}

	if _, err := j.bw.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON data: %w", err)
	}
	if err := j.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush implements the DataSink interface.
func (j *JSONWriter) Flush() error {
	return j.bw.Flush()
}

// Close implements the DataSink interface.
func (j *JSONWriter) Close() error {
	if err := j.bw.Flush(); err != nil {
		if j.closer != nil {
			j.closer.Close()
		}
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
