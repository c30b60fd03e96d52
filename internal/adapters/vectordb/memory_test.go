package vectordb

import (
	"context"
	"testing"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

func TestInMemorySource_StoreAndSearch(t *testing.T) {
	src := NewInMemorySource("alphabetical")
	ctx := context.Background()

	src.Store(ctx,
		[]entities.ReferenceTerm{
			{Term: "computers", Class: 9},
			{Term: "socks", Class: 25},
		},
		[][]float32{{1, 0, 0}, {0, 1, 0}})

	results, err := src.Search(ctx, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 || results[0].Term.Term != "computers" {
		t.Errorf("unexpected results: %+v", results)
	}
	if results[0].Term.Source != "alphabetical" {
		t.Error("source tag should be applied on store")
	}
}

func TestInMemorySource_TieBreakKeepsInsertionOrder(t *testing.T) {
	src := NewInMemorySource("ipos")
	ctx := context.Background()

	// Identical vectors: identical scores, order must follow insertion.
	src.Store(ctx,
		[]entities.ReferenceTerm{
			{Term: "first", Class: 1},
			{Term: "second", Class: 2},
			{Term: "third", Class: 3},
		},
		[][]float32{{1, 0}, {1, 0}, {1, 0}})

	results, _ := src.Search(ctx, []float32{1, 0}, 3)
	if results[0].Term.Term != "first" || results[2].Term.Term != "third" {
		t.Errorf("equal scores must keep insertion order: %+v", results)
	}
}

func TestInMemorySource_Clear(t *testing.T) {
	src := NewInMemorySource("uspto")
	ctx := context.Background()

	src.Store(ctx, []entities.ReferenceTerm{{Term: "a", Class: 1}}, [][]float32{{1}})
	src.Clear(ctx)

	results, _ := src.Search(ctx, []float32{1}, 5)
	if len(results) != 0 {
		t.Error("clear should remove all terms")
	}
}
