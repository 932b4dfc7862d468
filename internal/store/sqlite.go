package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"semdex/pkg/types"
)

// DeleteBatchSize caps how many ids one physical DELETE statement carries,
// keeping queries under the driver's parameter limits.
const DeleteBatchSize = 50

// ErrNotConnected is returned by write operations before Connect succeeds.
var ErrNotConnected = errors.New("store not connected")

// Store persists chunks and their vectors in a project-local SQLite file
// and answers nearest-neighbor queries over them.
//
// Construction is cheap and performs no I/O; Connect (or the first write)
// establishes the database. Search never fails the caller: any store error
// degrades to an empty result set.
type Store struct {
	path string
	db   *sql.DB
}

// New creates a Store for the given database file path.
func New(dbPath string) *Store {
	return &Store{path: dbPath}
}

// Connect opens the database, enables WAL mode, and applies migrations.
// Calling Connect on a connected store is a no-op.
func (s *Store) Connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode lets retrieval reads proceed alongside an indexing write.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Add persists the given chunks, assigning each a fresh id. The returned
// ids are in input order. The store is lazily established on first use.
// Every chunk must carry a vector; persisting an unembedded chunk would
// poison later searches, so it is rejected here.
func (s *Store) Add(ctx context.Context, chunks []types.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	for i := range chunks {
		if len(chunks[i].Vector) == 0 {
			return nil, fmt.Errorf("chunk %d (%s) has no vector", i, chunks[i].FilePath)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		INSERT INTO chunks (id, file_path, start_line, end_line, label, content, vector, dimension)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	ids := make([]string, len(chunks))
	for i := range chunks {
		id := uuid.NewString()
		c := &chunks[i]
		_, err := tx.ExecContext(ctx, query,
			id, c.FilePath, c.StartLine, c.EndLine, c.Label, c.Content,
			serializeVector(c.Vector), len(c.Vector))
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit insert: %w", err)
	}
	return ids, nil
}

// Delete removes chunks by id. Unknown ids are ignored. Large deletions are
// split into batches of DeleteBatchSize ids per statement.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}

	for start := 0; start < len(ids); start += DeleteBatchSize {
		end := start + DeleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, len(batch))
		for i, id := range batch {
			placeholders[i] = "?"
			args[i] = id
		}

		query := `DELETE FROM chunks WHERE id IN (` + strings.Join(placeholders, ",") + `)`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
	}

	return nil
}

// Search returns up to limit chunks ordered by cosine similarity to the
// query vector, vectors populated. A missing database, a missing table, or
// any query failure yields an empty slice: "no context found" is a valid
// outcome and must never abort retrieval.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) []types.Chunk {
	if limit <= 0 || len(queryVector) == 0 {
		return []types.Chunk{}
	}
	if s.db == nil {
		// Searching before anything was ever indexed.
		if _, err := os.Stat(s.path); err != nil {
			return []types.Chunk{}
		}
		if err := s.Connect(ctx); err != nil {
			log.Printf("store: search degraded to empty, connect failed: %v", err)
			return []types.Chunk{}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, start_line, end_line, label, content, vector
		FROM chunks
	`)
	if err != nil {
		log.Printf("store: search degraded to empty: %v", err)
		return []types.Chunk{}
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]scoredChunk, 0, 256)
	for rows.Next() {
		var c types.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.FilePath, &c.StartLine, &c.EndLine, &c.Label, &c.Content, &blob); err != nil {
			log.Printf("store: search degraded to empty: %v", err)
			return []types.Chunk{}
		}
		c.Vector = deserializeVector(blob)
		if len(c.Vector) != len(queryVector) {
			continue // Dimension mismatch (provider change), skip
		}
		candidates = append(candidates, scoredChunk{
			chunk: c,
			score: cosineSimilarity(queryVector, c.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		log.Printf("store: search degraded to empty: %v", err)
		return []types.Chunk{}
	}

	sortScored(candidates)

	if limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]types.Chunk, limit)
	for i := 0; i < limit; i++ {
		results[i] = candidates[i].chunk
	}
	return results
}

// ListIDs returns the ids of every live chunk.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of live chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.Connect(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}
