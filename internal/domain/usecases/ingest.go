package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
	"github.com/nicemagician/nice-classification/internal/domain/ports"
)

// IngestUseCase loads reference terms into a knowledge source: batch-embeds
// the terms and stores vectors with their metadata. The query path never
// writes; ingestion is the only writer.
type IngestUseCase struct {
	embedder  ports.Embedder
	stores    map[string]ports.KnowledgeStore
	batchSize int
	log       *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase over the given per-source stores.
func NewIngestUseCase(embedder ports.Embedder, stores map[string]ports.KnowledgeStore, batchSize int, log *zap.Logger) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestUseCase{
		embedder:  embedder,
		stores:    stores,
		batchSize: batchSize,
		log:       log,
	}
}

// Ingest embeds and stores terms for one source. Terms missing text or with
// an unknown class are still stored (they render as "Unknown" at query time);
// only terms with empty text are skipped. Returns the number stored.
func (uc *IngestUseCase) Ingest(ctx context.Context, source string, terms []entities.ReferenceTerm) (int, error) {
	store, ok := uc.stores[source]
	if !ok {
		return 0, fmt.Errorf("unknown knowledge source %q", source)
	}

	var kept []entities.ReferenceTerm
	for _, t := range terms {
		if t.Term == "" {
			continue
		}
		t.Source = source
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	stored := 0
	for start := 0; start < len(kept); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(kept) {
			end = len(kept)
		}
		batch := kept[start:end]

		texts := make([]string, len(batch))
		for i, t := range batch {
			texts[i] = embeddingText(t)
		}

		vectors, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("embedding batch for %s: %w", source, err)
		}
		if err := store.Store(ctx, batch, vectors); err != nil {
			return stored, fmt.Errorf("storing batch for %s: %w", source, err)
		}
		stored += len(batch)
	}

	uc.log.Info("corpus ingested",
		zap.String("source", source),
		zap.Int("terms", stored),
		zap.Int("skipped", len(terms)-len(kept)),
	)
	return stored, nil
}

// embeddingText is the text shape embedded for a reference term, matching the
// shape used at query time by the corpora this system retrieves against.
func embeddingText(t entities.ReferenceTerm) string {
	text := fmt.Sprintf("Class %s – %s.", t.ClassLabel(), t.Term)
	if t.Description != "" {
		text += " " + t.Description
	}
	return text
}
