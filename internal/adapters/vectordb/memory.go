package vectordb

import (
	"context"
	"sort"
	"sync"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// InMemorySource is a knowledge source held entirely in memory, used in tests
// and for small ad-hoc corpora. Same search semantics as the SQLite store:
// brute-force cosine, score-descending, insertion-order tie-break.
type InMemorySource struct {
	mu      sync.RWMutex
	source  string
	terms   []entities.ReferenceTerm
	vectors [][]float32
}

// NewInMemorySource creates an empty in-memory knowledge source.
func NewInMemorySource(source string) *InMemorySource {
	return &InMemorySource{source: source}
}

// Name identifies the knowledge source.
func (s *InMemorySource) Name() string { return s.source }

// Store appends terms with their embeddings.
func (s *InMemorySource) Store(ctx context.Context, terms []entities.ReferenceTerm, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range terms {
		t.Source = s.source
		s.terms = append(s.terms, t)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Search finds the most similar terms to a query embedding.
func (s *InMemorySource) Search(ctx context.Context, vector []float32, k int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]entities.RetrievalResult, len(s.terms))
	for i, t := range s.terms {
		results[i] = entities.RetrievalResult{
			Term:  t,
			Score: cosineSimilarity(vector, s.vectors[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Clear removes all terms.
func (s *InMemorySource) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.terms = nil
	s.vectors = nil
	return nil
}
