// Package store persists ingested documents and their chunks, either in
// SQLite or as a tree of JSON files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// DocumentInfo summarizes a stored document for listings.
type DocumentInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ContainerKey string    `json:"containerKey"`
	Author       string    `json:"author"`
	LastUpdated  string    `json:"lastUpdated"`
	ContentHash  string    `json:"contentHash"`
	ChunkCount   int       `json:"chunkCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store wraps a SQLite database holding documents and chunks.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS documents (
			id            TEXT PRIMARY KEY,
			container_key TEXT NOT NULL,
			title         TEXT NOT NULL,
			author        TEXT NOT NULL,
			last_updated  TEXT NOT NULL,
			url           TEXT NOT NULL,
			content_hash  TEXT NOT NULL,
			document      TEXT NOT NULL,
			updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents (content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_container ON documents (container_key)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq         INTEGER NOT NULL,
			type        TEXT NOT NULL,
			section     TEXT NOT NULL,
			content     TEXT NOT NULL,
			data        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks (document_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// Name identifies the store in job logs.
func (s *Store) Name() string { return "sqlite" }

// Write satisfies the pipeline sink contract.
func (s *Store) Write(ctx context.Context, rec doctree.Record) error {
	return s.SaveDocument(ctx, rec)
}

// SaveDocument upserts the document row and replaces its chunks in one
// transaction.
func (s *Store) SaveDocument(ctx context.Context, rec doctree.Record) error {
	if rec.Meta.ID == "" {
		return errors.New("save document: empty document id")
	}
	docJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	m := rec.Meta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, container_key, title, author, last_updated, url, content_hash, document, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET
			container_key = excluded.container_key,
			title         = excluded.title,
			author        = excluded.author,
			last_updated  = excluded.last_updated,
			url           = excluded.url,
			content_hash  = excluded.content_hash,
			document      = excluded.document,
			updated_at    = excluded.updated_at`,
		m.ID, m.ContainerKey, m.Title, m.Author, m.LastUpdated, m.URL, rec.ContentHash, string(docJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, seq, type, section, content, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range rec.Chunks {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal chunk %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, m.ID, i, c.Type, c.Metadata.Section, c.Content, string(data)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Document loads the full record for id. It returns nil, nil when the
// document does not exist.
func (s *Store) Document(ctx context.Context, id string) (*doctree.Record, error) {
	var (
		rec     doctree.Record
		docJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, container_key, title, author, last_updated, url, content_hash, document
		 FROM documents WHERE id = ?`, id,
	).Scan(&rec.Meta.ID, &rec.Meta.ContainerKey, &rec.Meta.Title, &rec.Meta.Author,
		&rec.Meta.LastUpdated, &rec.Meta.URL, &rec.ContentHash, &docJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc doctree.ParsedDocument
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	rec.Document = &doc

	rec.Chunks, err = s.Chunks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Chunks returns a document's chunks in emission order.
func (s *Store) Chunks(ctx context.Context, documentID string) ([]doctree.VectorChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM chunks WHERE document_id = ? ORDER BY seq`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []doctree.VectorChunk
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var c doctree.VectorChunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListDocuments returns document summaries ordered by id. An empty
// containerKey lists every container.
func (s *Store) ListDocuments(ctx context.Context, containerKey string) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.title, d.container_key, d.author, d.last_updated, d.content_hash, d.updated_at,
		        (SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		 FROM documents d
		 WHERE ? = '' OR d.container_key = ?
		 ORDER BY d.id`, containerKey, containerKey)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.ID, &d.Title, &d.ContainerKey, &d.Author, &d.LastUpdated,
			&d.ContentHash, &d.UpdatedAt, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document and its chunks. It reports whether a
// document was deleted.
func (s *Store) DeleteDocument(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n > 0, nil
}

// LookupHash finds the document previously stored from identical markup.
func (s *Store) LookupHash(ctx context.Context, hash string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE content_hash = ? ORDER BY updated_at DESC LIMIT 1`, hash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup hash: %w", err)
	}
	return id, true, nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
