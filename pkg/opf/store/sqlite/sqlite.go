package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/pattern"
	"github.com/openpatterns/opf/pkg/opf/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDs
}

// OpenSQLite opens a SQLite database with WAL mode enabled
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	// One writer; pragmas below apply to the single pooled connection
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, ids: store.NewIDs()}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	source TEXT,
	style_name TEXT,
	base_size TEXT,
	unit INTEGER,
	created_at INTEGER NOT NULL,
	format_json TEXT NOT NULL,
	diagnostics_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pattern_sizes (
	pattern_id TEXT NOT NULL,
	size TEXT NOT NULL,
	UNIQUE(pattern_id, size),
	FOREIGN KEY(pattern_id) REFERENCES patterns(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pattern_pieces (
	pattern_id TEXT NOT NULL,
	name TEXT NOT NULL,
	vertices INTEGER NOT NULL,
	UNIQUE(pattern_id, name),
	FOREIGN KEY(pattern_id) REFERENCES patterns(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pattern_diagnostics (
	pattern_id TEXT NOT NULL,
	severity INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(pattern_id, severity),
	FOREIGN KEY(pattern_id) REFERENCES patterns(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_patterns_style ON patterns(style_name);
CREATE INDEX IF NOT EXISTS idx_patterns_created ON patterns(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SavePattern inserts or replaces an archived pattern
func (s *sqliteStore) SavePattern(ctx context.Context, rec store.Record) (string, error) {
	if rec.Format == nil {
		return "", fmt.Errorf("%w: record without pattern", internalerr.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = s.ids.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	formatJSON, err := json.Marshal(rec.Format)
	if err != nil {
		return "", err
	}
	diagJSON, err := json.Marshal(rec.Diagnostics)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO patterns (id, source, style_name, base_size, unit, created_at, format_json, diagnostics_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	style_name=excluded.style_name,
	base_size=excluded.base_size,
	unit=excluded.unit,
	created_at=excluded.created_at,
	format_json=excluded.format_json,
	diagnostics_json=excluded.diagnostics_json;
`
	_, err = tx.ExecContext(ctx, stmt,
		rec.ID,
		rec.Source,
		rec.Format.Style.Name,
		rec.Format.Style.BaseSize,
		int(rec.Format.Asset.Unit),
		rec.CreatedAt.UnixNano(),
		string(formatJSON),
		string(diagJSON),
	)
	if err != nil {
		return "", err
	}

	if err := replaceSizes(ctx, tx, rec.ID, rec.Format.Sizes); err != nil {
		return "", err
	}
	if err := replacePieces(ctx, tx, rec.ID, rec.Format.Pieces); err != nil {
		return "", err
	}
	if err := replaceDiagnosticCounts(ctx, tx, rec.ID, rec.Diagnostics); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func replaceSizes(ctx context.Context, tx *sql.Tx, id string, sizes []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_sizes WHERE pattern_id=?`, id); err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO pattern_sizes (pattern_id, size) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, size := range sizes {
		if _, err := stmt.ExecContext(ctx, id, size); err != nil {
			return err
		}
	}
	return nil
}

func replacePieces(ctx context.Context, tx *sql.Tx, id string, pieces []*pattern.Piece) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_pieces WHERE pattern_id=?`, id); err != nil {
		return err
	}
	if len(pieces) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO pattern_pieces (pattern_id, name, vertices) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range pieces {
		if _, err := stmt.ExecContext(ctx, id, p.Name, p.Vertices.Len()); err != nil {
			return err
		}
	}
	return nil
}

func replaceDiagnosticCounts(ctx context.Context, tx *sql.Tx, id string, diags []diag.Diagnostic) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_diagnostics WHERE pattern_id=?`, id); err != nil {
		return err
	}
	counts := make(map[diag.Severity]int)
	for _, d := range diags {
		counts[d.Severity]++
	}
	for sev, n := range counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pattern_diagnostics (pattern_id, severity, count) VALUES (?, ?, ?)`,
			id, int(sev), n); err != nil {
			return err
		}
	}
	return nil
}

// GetPattern loads an archived pattern by id
func (s *sqliteStore) GetPattern(ctx context.Context, id string) (store.Record, error) {
	var (
		rec        store.Record
		createdAt  int64
		formatJSON string
		diagJSON   string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, created_at, format_json, diagnostics_json
FROM patterns WHERE id = ?`, id).Scan(&rec.ID, &rec.Source, &createdAt, &formatJSON, &diagJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, fmt.Errorf("pattern %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Record{}, err
	}

	rec.CreatedAt = time.Unix(0, createdAt).UTC()

	var f pattern.Format
	if err := json.Unmarshal([]byte(formatJSON), &f); err != nil {
		return store.Record{}, fmt.Errorf("decode pattern %s: %w", id, err)
	}
	if err := f.Validate(); err != nil {
		return store.Record{}, err
	}
	rec.Format = &f

	if err := json.Unmarshal([]byte(diagJSON), &rec.Diagnostics); err != nil {
		return store.Record{}, fmt.Errorf("decode diagnostics %s: %w", id, err)
	}
	return rec, nil
}

// ListPatterns returns archive summaries, newest first
func (s *sqliteStore) ListPatterns(ctx context.Context, opts store.ListOptions) ([]store.Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	query := `
SELECT p.id, p.source, p.style_name, p.base_size, p.created_at,
	(SELECT COUNT(*) FROM pattern_pieces pp WHERE pp.pattern_id = p.id),
	(SELECT COUNT(*) FROM pattern_sizes ps WHERE ps.pattern_id = p.id),
	(SELECT COALESCE(SUM(pd.count), 0) FROM pattern_diagnostics pd WHERE pd.pattern_id = p.id)
FROM patterns p
`
	args := []interface{}{}
	if opts.Style != "" {
		query += "WHERE p.style_name = ?\n"
		args = append(args, opts.Style)
	}
	query += "ORDER BY p.created_at DESC, p.id DESC\nLIMIT ?;"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Summary
	for rows.Next() {
		var (
			sum       store.Summary
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &sum.StyleName, &sum.BaseSize, &createdAt,
			&sum.Pieces, &sum.Sizes, &sum.Diagnostics); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeletePattern removes an archived pattern and its index rows
func (s *sqliteStore) DeletePattern(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pattern %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}
