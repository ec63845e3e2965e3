package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	root_id TEXT NOT NULL,
	version INTEGER NOT NULL,
	updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	doc_id TEXT NOT NULL,
	id TEXT NOT NULL,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	parent_id TEXT,
	parent_prop TEXT,
	parent_index TEXT,
	record JSON NOT NULL,
	PRIMARY KEY (doc_id, id)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(doc_id, parent_id, parent_prop, parent_index);
`

// SQLiteStore keeps documents in a SQLite database, one row per node.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection: writers serialize and :memory: stays a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, doc string) (*dom.Dom, Version, error) {
	if err := checkDocID(doc); err != nil {
		return nil, 0, err
	}

	var rootID string
	var version Version
	err := s.db.QueryRowContext(ctx,
		`SELECT root_id, version FROM documents WHERE id = ?`, doc).Scan(&rootID, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, doc)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", doc, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM nodes WHERE doc_id = ?`, doc)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s nodes: %w", doc, err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []*dom.Node
	for rows.Next() {
		var id string
		var record []byte
		if err := rows.Scan(&id, &record); err != nil {
			return nil, 0, fmt.Errorf("scan node: %w", err)
		}
		n := new(dom.Node)
		if err := json.Unmarshal(record, n); err != nil {
			return nil, 0, fmt.Errorf("decode node %s: %w", id, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("load %s nodes: %w", doc, err)
	}

	d, err := dom.FromNodes(dom.NodeID(rootID), nodes)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", doc, err)
	}
	return d, version, nil
}

// Save implements Store. The whole snapshot replaces the stored one in a
// single transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc string, d *dom.Dom, base Version) (Version, error) {
	if err := checkDocID(doc); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current Version
	err = tx.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, doc).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read version of %s: %w", doc, err)
	}
	if current != base {
		return 0, fmt.Errorf("%w: %s is at version %d, base is %d", ErrVersionConflict, doc, current, base)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE doc_id = ?`, doc); err != nil {
		return 0, fmt.Errorf("clear nodes: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (doc_id, id, kind, name, parent_id, parent_prop, parent_index, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	nodes := d.Nodes()
	for _, n := range nodes {
		record, err := json.Marshal(n)
		if err != nil {
			return 0, fmt.Errorf("encode node %s: %w", n.ID, err)
		}
		var parentID, parentProp, parentIndex sql.NullString
		if n.IsAttached() {
			parentID = sql.NullString{String: string(n.ParentID), Valid: true}
			parentProp = sql.NullString{String: n.ParentProp, Valid: true}
			parentIndex = sql.NullString{String: string(n.ParentIndex), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, doc, string(n.ID), n.Kind.String(), n.Name,
			parentID, parentProp, parentIndex, string(record)); err != nil {
			return 0, fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	next := base + 1
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, root_id, version, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET root_id = excluded.root_id, version = excluded.version, updated = excluded.updated
	`, doc, string(d.Root()), next, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("write document %s: %w", doc, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	log.Printf("Store: saved %s v%d (%d nodes)", doc, next, len(nodes))
	return next, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, doc string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc)
	if err != nil {
		return fmt.Errorf("delete %s: %w", doc, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, doc)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE doc_id = ?`, doc); err != nil {
		return fmt.Errorf("delete %s nodes: %w", doc, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("Store: deleted %s", doc)
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
