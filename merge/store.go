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
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store spills merged records to a SQLite file keyed by merge id, so a merge
// over an arbitrarily large stream holds at most one record in memory. Writes
// run inside a transaction that commits every batchSize upserts.
type Store struct {
	db        *sql.DB
	tx        *sql.Tx
	pending   int
	batchSize int
}

// DefaultBatchSize is the number of upserts between commits.
const DefaultBatchSize = 1000

// OpenStore opens (or creates) the SQLite spill file at path.
func OpenStore(path string, batchSize int) (*Store, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("merge store open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS merged_data (
			merge_id  TEXT PRIMARY KEY,
			json_data TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("merge store schema: %w", err)
	}

	return &Store{db: db, batchSize: batchSize}, nil
}

// Get loads the record stored under id, reporting whether one exists.
func (s *Store) Get(ctx context.Context, id string) (map[string]interface{}, bool, error) {
	// Pending writes must be visible to the read.
	var row *sql.Row
	if s.tx != nil {
		row = s.tx.QueryRowContext(ctx, `SELECT json_data FROM merged_data WHERE merge_id = ?`, id)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT json_data FROM merged_data WHERE merge_id = ?`, id)
	}

	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("merge store get %q: %w", id, err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, false, fmt.Errorf("merge store decode %q: %w", id, err)
	}
	return record, true, nil
}

// Put upserts record under id.
func (s *Store) Put(ctx context.Context, id string, record map[string]interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("merge store encode %q: %w", id, err)
	}

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("merge store begin: %w", err)
		}
		s.tx = tx
	}

	if _, err := s.tx.ExecContext(ctx, `
		INSERT INTO merged_data (merge_id, json_data) VALUES (?, ?)
		ON CONFLICT(merge_id) DO UPDATE SET json_data = excluded.json_data
	`, id, string(data)); err != nil {
		return fmt.Errorf("merge store put %q: %w", id, err)
	}

	s.pending++
	if s.pending >= s.batchSize {
		return s.Commit()
	}
	return nil
}

// Commit flushes the open transaction, if any.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	s.pending = 0
	if err != nil {
		return fmt.Errorf("merge store commit: %w", err)
	}
	return nil
}

// Each calls fn for every stored record, ordered by merge id.
func (s *Store) Each(ctx context.Context, fn func(id string, record map[string]interface{}) error) error {
	if err := s.Commit(); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT merge_id, json_data FROM merged_data ORDER BY merge_id`)
	if err != nil {
		return fmt.Errorf("merge store iterate: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("merge store scan: %w", err)
		}
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return fmt.Errorf("merge store decode %q: %w", id, err)
		}
		if err := fn(id, record); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Len counts stored records.
func (s *Store) Len(ctx context.Context) (int64, error) {
	if err := s.Commit(); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM merged_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("merge store count: %w", err)
	}
	return n, nil
}

// Close commits pending writes and closes the database.
func (s *Store) Close() error {
	err := s.Commit()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
