package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL allows the TUI and CLI to share the file; busy_timeout covers short write overlaps.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS texts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'initialized',
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text_id TEXT NOT NULL REFERENCES texts(id) ON DELETE CASCADE,
			annotator_id TEXT NOT NULL,
			annotation_type TEXT NOT NULL,
			level TEXT NOT NULL DEFAULT '',
			name TEXT,
			selected_text TEXT NOT NULL,
			start_position INTEGER NOT NULL,
			end_position INTEGER NOT NULL,
			confidence INTEGER NOT NULL DEFAULT 100,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_text ON annotations(text_id, start_position);`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			annotation_id INTEGER NOT NULL REFERENCES annotations(id) ON DELETE CASCADE,
			reviewer_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			comment TEXT,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_annotation ON reviews(annotation_id);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			type_id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate workspace: %w", err)
		}
	}
	_, err := db.ExecContext(ctx, `INSERT INTO meta(k, v) VALUES('schema_version', ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v;`, schemaVersion)
	return err
}
