// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, not concrete implementations;
// adapters implement them. Handles are injected at construction time - the
// pipeline holds no hidden process-wide state.
package ports

import (
	"context"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// Embedder converts text into a fixed-length vector.
// Deterministic for a given model/version; no side effects beyond the call.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// KnowledgeSource is one independently queryable corpus of reference terms.
type KnowledgeSource interface {
	// Name identifies the source ("alphabetical", "ipos", ...).
	Name() string

	// Search returns up to k results ordered by descending similarity.
	// Ties keep store order (insertion order). An empty result is not an
	// error; only an actual retrieval failure is.
	Search(ctx context.Context, vector []float32, k int) ([]entities.RetrievalResult, error)
}

// KnowledgeStore extends a source with the write side used by ingestion.
// The query path never uses Store; reference data is read-only per request.
type KnowledgeStore interface {
	KnowledgeSource

	// Store persists terms with their embeddings, replacing by LocalID.
	Store(ctx context.Context, terms []entities.ReferenceTerm, vectors [][]float32) error
}

// ReasoningOracle is the external language-reasoning engine. It receives a
// composed prompt and returns free text; the caller owns prompt composition
// and response parsing.
type ReasoningOracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CorpusWatcher monitors a directory of corpus files for changes.
type CorpusWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a corpus file change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
