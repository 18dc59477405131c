/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "fractionbars/internal/log"
	"fractionbars/internal/model"
	"fractionbars/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// JournalDirName holds per-directory disposable data next to the documents.
	JournalDirName  = ".fractionbars"
	JournalFileName = "journal.sqlite"

	// journalSchemaVersion tracks the SQLite layout of the journal.
	journalSchemaVersion = 1
)

// language=SQL
// dialect=SQLite
const createCheckpointsSQL = `CREATE TABLE IF NOT EXISTS checkpoints (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	document TEXT NOT NULL,
	ts       TEXT NOT NULL,
	label    TEXT NOT NULL,
	doc      BLOB NOT NULL
)`

// language=SQL
// dialect=SQLite
const createCheckpointsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_checkpoints_document ON checkpoints(document, id)`

// language=SQL
// dialect=SQLite
const createVersionSQL = `CREATE TABLE IF NOT EXISTS version (
	id         INTEGER PRIMARY KEY CHECK(id=1),
	schema     INTEGER NOT NULL,
	app        TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// language=SQL
// dialect=SQLite
const upsertVersionSQL = `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET app = excluded.app, updated_at = excluded.updated_at`

// language=SQL
// dialect=SQLite
const insertCheckpointSQL = `INSERT INTO checkpoints(document, ts, label, doc) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestCheckpointSQL = `SELECT id, ts, label, doc FROM checkpoints WHERE document = ? ORDER BY id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listCheckpointsSQL = `SELECT id, ts, label, doc FROM checkpoints WHERE document = ? ORDER BY id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneCheckpointsSQL = `DELETE FROM checkpoints WHERE document = ? AND id NOT IN (
	SELECT id FROM checkpoints WHERE document = ? ORDER BY id DESC LIMIT ?
)`

// Checkpoint is one journaled document state.
type Checkpoint struct {
	ID    int64
	TS    time.Time
	Label string
	Doc   *model.Document
}

// Journal records document checkpoints for every document in one directory.
type Journal struct {
	db   *sql.DB
	path string
}

// JournalPath returns the journal file used for documents in dir.
func JournalPath(dir string) string {
	return filepath.Join(dir, JournalDirName, JournalFileName)
}

// OpenJournal ensures the journal exists under dir, opens it in WAL mode and
// brings its schema up to date.
func OpenJournal(ctx context.Context, dir string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("journal dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, JournalDirName), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", JournalDirName, err)
	}
	path := JournalPath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, q := range []string{createVersionSQL, createCheckpointsSQL, createCheckpointsIndexSQL} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create journal schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, upsertVersionSQL, journalSchemaVersion, version.String(), now, now); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record journal version: %w", err)
	}
	l.Debug("journal ready", slog.String("path", path))
	return &Journal{db: db, path: path}, nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error { return j.db.Close() }

// SaveCheckpoint stores doc under the document name with a label and timestamp.
func (j *Journal) SaveCheckpoint(ctx context.Context, document, label string, doc *model.Document, ts time.Time) (int64, error) {
	blob, err := Encode(doc)
	if err != nil {
		return 0, err
	}
	res, err := j.db.ExecContext(ctx, insertCheckpointSQL, document, ts.UTC().Format(time.RFC3339Nano), label, blob)
	if err != nil {
		return 0, fmt.Errorf("insert checkpoint: %w", err)
	}
	return res.LastInsertId()
}

// LatestCheckpoint returns the newest checkpoint for document, or nil if none.
func (j *Journal) LatestCheckpoint(ctx context.Context, document string) (*Checkpoint, error) {
	cp, err := scanCheckpoint(j.db.QueryRowContext(ctx, selectLatestCheckpointSQL, document))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cp, err
}

// ListCheckpoints returns up to limit checkpoints, newest first.
func (j *Journal) ListCheckpoints(ctx context.Context, document string, limit int) ([]Checkpoint, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, listCheckpointsSQL, document, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	return out, rows.Err()
}

// PruneCheckpoints keeps at most keepLast checkpoints for document.
func (j *Journal) PruneCheckpoints(ctx context.Context, document string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, pruneCheckpointsSQL, document, document, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(r rowScanner) (*Checkpoint, error) {
	var (
		cp    Checkpoint
		tsStr string
		blob  []byte
	)
	if err := r.Scan(&cp.ID, &tsStr, &cp.Label, &blob); err != nil {
		return nil, err
	}
	cp.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	doc, err := Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %d: %w", cp.ID, err)
	}
	cp.Doc = doc
	return &cp, nil
}
