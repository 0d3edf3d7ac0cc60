package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragchat/data/ragchat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragchat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ragchat.db")

	// WAL mode for better concurrency between the CLI and the watcher
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Ingestion ====================

// IngestDocument persists a document, its raw file and its embedded
// chunks in a single transaction.
func (s *Store) IngestDocument(ctx context.Context, doc domain.Document, raw domain.RawFile, chunks []domain.Chunk) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStorage("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, source_path, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, nullString(doc.SourcePath), metadataJSON, doc.CreatedAt)
	if err != nil {
		return errStorage("inserting document", err)
	}

	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = doc.CreatedAt
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO raw_files (document_id, file_name, size_bytes, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, raw.FileName, raw.SizeBytes, raw.Content, raw.CreatedAt)
	if err != nil {
		return errStorage("inserting raw file", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return errStorage("preparing chunk insert", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, doc.ID, chunk.Index, chunk.Content, embeddingBlob); err != nil {
			return errStorage(fmt.Sprintf("inserting chunk %d", chunk.Index), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errStorage("committing ingestion", err)
	}

	return nil
}

// ==================== Retrieval ====================

// Retrieve scans all stored embeddings and returns the topK chunks
// nearest to the query vector by cosine distance, closest first.
// Chunks whose embedding length differs from the query are skipped.
func (s *Store) Retrieve(ctx context.Context, query []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 || len(query) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, content, embedding FROM chunks
	`)
	if err != nil {
		return nil, errStorage("querying chunks", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk
	for rows.Next() {
		var (
			chunk domain.RetrievedChunk
			blob  []byte
		)
		if err := rows.Scan(&chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &blob); err != nil {
			return nil, errStorage("scanning chunk", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(query) {
			continue
		}

		chunk.Score = cosineDistance(query, embedding)
		results = append(results, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("iterating chunks", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	if results == nil {
		results = []domain.RetrievedChunk{}
	}

	return results, nil
}

// ==================== Documents ====================

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, source_path, metadata, created_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, errStorage("scanning document", err)
	}

	return doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, source_path, metadata, created_at
		FROM documents ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, errStorage("querying documents", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, errStorage("scanning document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("iterating documents", err)
	}

	return docs, nil
}

// GetChunks returns a document's chunks ordered by index.
// Embeddings are not populated.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, content FROM chunks
		WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, errStorage("querying chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &chunk.Content); err != nil {
			return nil, errStorage("scanning chunk", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("iterating chunks", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document; raw file and chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return errStorage("deleting document", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errStorage("checking delete result", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ==================== Helpers ====================

// errStorage tags err as a storage failure while keeping the driver
// detail in the message.
func errStorage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}

// scanDocument reads one documents row via the given scan function.
func scanDocument(scan func(...any) error) (domain.Document, error) {
	var (
		doc          domain.Document
		sourcePath   sql.NullString
		metadataJSON sql.NullString
		createdAt    sql.NullTime
	)
	if err := scan(&doc.ID, &doc.Title, &sourcePath, &metadataJSON, &createdAt); err != nil {
		return domain.Document{}, err
	}

	doc.SourcePath = sourcePath.String
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return doc, nil
}

// marshalMetadata serialises metadata to JSON, NULL for an empty map.
func marshalMetadata(metadata map[string]any) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// cosineDistance returns 1 - cosine similarity. Smaller is closer.
// Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
