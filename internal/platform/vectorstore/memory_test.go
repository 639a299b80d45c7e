package vectorstore

import (
	"context"
	"testing"
)

func TestInMemory_QueryMatchesReturnsClosestFirst(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	err := store.Upsert(ctx, "chat-1", []Vector{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0, 1}},
		{ID: "c", Values: []float32{0.9, 0.1}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := store.QueryMatches(ctx, "chat-1", []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "a" {
		t.Fatalf("expected a first, got %+v", matches)
	}
}

func TestInMemory_FilterExcludesNonMatchingMetadata(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_ = store.Upsert(ctx, "chat-1", []Vector{
		{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{"layer": "episodic"}},
		{ID: "b", Values: []float32{1, 0}, Metadata: map[string]any{"layer": "semantic"}},
	})

	matches, err := store.QueryMatches(ctx, "chat-1", []float32{1, 0}, 10, map[string]any{"layer": "semantic"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", matches)
	}
}

func TestInMemory_DeleteIDsRemovesVector(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_ = store.Upsert(ctx, "chat-1", []Vector{{ID: "a", Values: []float32{1, 0}}})
	if err := store.DeleteIDs(ctx, "chat-1", []string{"a"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	matches, err := store.QueryMatches(ctx, "chat-1", []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches after delete, got %+v", matches)
	}
}
