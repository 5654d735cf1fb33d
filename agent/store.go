/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package agent

import (
	"context"
	"database/sql"

	"github.com/luckygas/luckygas/model"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Store is the persistent backing for the offline queue. Items survive
// process restarts; List returns them in insertion order.
type Store interface {
	Append(ctx context.Context, item *model.QueueItem) error
	List(ctx context.Context) ([]model.QueueItem, error)
	Delete(ctx context.Context, id string) error
	IncrementRetries(ctx context.Context, id string) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// SQLiteStore persists queue items in a local SQLite file on the driver
// device.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the queue database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening queue store")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS queue_items (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			payload BLOB NOT NULL,
			timestamp INTEGER NOT NULL,
			retries INTEGER NOT NULL DEFAULT 0,
			idempotency_key TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating queue table")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, item *model.QueueItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_items (item_id, type, payload, timestamp, retries, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.Type), []byte(item.Payload), item.Timestamp, item.Retries, item.IdempotencyKey)
	return errors.Wrap(err, "appending queue item")
}

// List returns all queued items in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]model.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, type, payload, timestamp, retries, idempotency_key
		FROM queue_items
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "listing queue items")
	}
	defer rows.Close()

	items := []model.QueueItem{}
	for rows.Next() {
		item := model.QueueItem{}
		var payload []byte
		err = rows.Scan(&item.ID, &item.Type, &payload, &item.Timestamp, &item.Retries, &item.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(err, "scanning queue item")
		}
		item.Payload = payload
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE item_id = ?`, id)
	return errors.Wrap(err, "deleting queue item")
}

func (s *SQLiteStore) IncrementRetries(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE queue_items SET retries = retries + 1 WHERE item_id = ?`, id)
	return errors.Wrap(err, "incrementing retries")
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_items`).Scan(&count)
	return count, errors.Wrap(err, "counting queue items")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
