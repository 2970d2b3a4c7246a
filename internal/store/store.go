/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package store persists board snapshots to a local SQLite database. It
// subscribes to the debounced aggregate-change channel, so a busy editing
// session produces one autosave per quiet period instead of one per
// keystroke. Snapshots are gzip-compressed blobs; only the newest N are
// kept.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	_ "modernc.org/sqlite"

	"drawboard/internal/engine"
	"drawboard/internal/event"
	applog "drawboard/internal/log"
)

// ErrNoSnapshots is returned by Latest when the database holds no autosaves.
var ErrNoSnapshots = errors.New("store: no snapshots")

const defaultKeep = 20

const schema = `
CREATE TABLE IF NOT EXISTS autosaves (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	snapshot   BLOB NOT NULL
);`

// Store is a snapshot archive backed by a single SQLite file.
type Store struct {
	log  *slog.Logger
	db   *sql.DB
	keep int

	mu  sync.Mutex
	sub *event.Subscription
}

// Open creates or opens the autosave database at path. keep bounds the
// number of retained snapshots; non-positive values fall back to the
// default.
func Open(path string, keep int) (*Store, error) {
	if keep <= 0 {
		keep = defaultKeep
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create autosave dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open autosave db: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY under concurrent autosaves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init autosave schema: %w", err)
	}
	return &Store{
		log:  applog.WithComponent("store"),
		db:   db,
		keep: keep,
	}, nil
}

// Attach subscribes the store to the bus: every debounced aggregate change
// serializes the engine and writes a snapshot. Errors are logged, never
// propagated into the editing path.
func (s *Store) Attach(bus *event.Bus, eng engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return
	}
	s.sub = bus.OnAggregateChange(func() {
		data, err := eng.Serialize()
		if err != nil {
			s.log.Error("autosave serialize failed", slog.Any("error", err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.SaveSnapshot(ctx, data); err != nil {
			s.log.Error("autosave write failed", slog.Any("error", err))
		}
	})
}

// Detach unsubscribes from the bus. Safe to call repeatedly.
func (s *Store) Detach() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// SaveSnapshot compresses and stores one snapshot, then prunes the archive
// down to the retention bound.
func (s *Store) SaveSnapshot(ctx context.Context, data json.RawMessage) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO autosaves (created_at, snapshot) VALUES (?, ?)`, now, buf.Bytes()); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM autosaves WHERE id NOT IN (SELECT id FROM autosaves ORDER BY id DESC LIMIT ?)`, s.keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	s.log.Debug("snapshot saved", slog.Int("bytes", buf.Len()))
	return nil
}

// Latest returns the newest snapshot, decompressed.
func (s *Store) Latest(ctx context.Context) (json.RawMessage, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM autosaves ORDER BY id DESC LIMIT 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = zr.Close() }()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return data, nil
}

// Count returns the number of retained snapshots.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM autosaves`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Close detaches from the bus and closes the database.
func (s *Store) Close() error {
	s.Detach()
	return s.db.Close()
}
