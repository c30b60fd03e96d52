// Package vectordb provides knowledge-source adapters backed by vector
// similarity search. The SQLite store keeps one database per knowledge
// source with brute-force cosine search - the corpora are small curated
// term lists, not web-scale indexes.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// SQLiteStore implements ports.KnowledgeStore with SQLite-based persistence.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	source string
}

// NewSQLiteStore opens (or creates) the store for one knowledge source at
// dataPath/<source>.db.
func NewSQLiteStore(dataPath, source string) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if source == "" {
		return nil, fmt.Errorf("source name must not be empty")
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, source+".db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db, source: source}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS terms (
		id TEXT PRIMARY KEY,
		term TEXT NOT NULL,
		description TEXT,
		class INTEGER NOT NULL,
		language TEXT,
		local_id TEXT,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_local_id ON terms(local_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name identifies the knowledge source.
func (s *SQLiteStore) Name() string { return s.source }

// Store persists terms with their embeddings. Terms with a LocalID replace
// any prior record for that LocalID; terms without one get a fresh record.
func (s *SQLiteStore) Store(ctx context.Context, terms []entities.ReferenceTerm, vectors [][]float32) error {
	if len(terms) != len(vectors) {
		return fmt.Errorf("term/vector count mismatch: %d vs %d", len(terms), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO terms (id, term, description, class, language, local_id, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range terms {
		embeddingJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}

		id := t.LocalID
		if id == "" {
			id = uuid.New().String()
		}

		_, err = stmt.ExecContext(ctx, id, t.Term, t.Description, t.Class, t.Language, t.LocalID, embeddingJSON)
		if err != nil {
			return fmt.Errorf("inserting term: %w", err)
		}
	}

	return tx.Commit()
}

// Search finds the most similar terms to a query embedding, ordered by
// descending score. Ties keep insertion order (rowid), which is the store's
// documented deterministic tie-break.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT term, description, class, language, local_id, embedding
		FROM terms
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var results []entities.RetrievalResult
	for rows.Next() {
		var t entities.ReferenceTerm
		var desc, lang, localID sql.NullString
		var embeddingJSON []byte

		if err := rows.Scan(&t.Term, &desc, &t.Class, &lang, &localID, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		t.Description = desc.String
		t.Language = lang.String
		t.LocalID = localID.String
		t.Source = s.source

		var embedding []float32
		if err := json.Unmarshal(embeddingJSON, &embedding); err != nil {
			continue // skip corrupted embeddings
		}

		results = append(results, entities.RetrievalResult{
			Term:  t,
			Score: cosineSimilarity(vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Clear removes all terms from the store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM terms")
	return err
}

// TermCount returns the number of stored terms.
func (s *SQLiteStore) TermCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM terms").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
