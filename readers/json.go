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

package readers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jsonltools/jexplode"
)

// maxLineBytes caps a single JSON line. Records beyond this are a stream
// defect, not a supported input.
const maxLineBytes = 16 * 1024 * 1024

// JSONReader implements jexplode.DataSource for newline-delimited JSON.
// Each non-blank line is one record. A line that fails to parse is a fatal
// error carrying the line number.
type JSONReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewJSONReader creates a JSONReader over r. Closing the reader closes r.
func NewJSONReader(r io.ReadCloser) *JSONReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &JSONReader{
		scanner: scanner,
		closer:  r,
	}
}

// Read implements the DataSource interface.
func (j *JSONReader) Read(ctx context.Context) (jexplode.Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !j.scanner.Scan() {
			if err := j.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read line %d: %w", j.line+1, err)
			}
			return nil, io.EOF
		}
		j.line++

		line := strings.TrimSpace(j.scanner.Text())
		if line == "" {
			continue
		}

		var record jexplode.Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", j.line, err)
		}
		return record, nil
	}
}

// Line returns the number of input lines consumed so far.
func (j *JSONReader) Line() int {
	return j.line
}

// Close implements the DataSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
