// Package vectorstore is the vector-retrieval collaborator C9 delegates
// to (§4.9 step 3, "Vector" path). Adapted from the teacher's
// platform/pinecone + clients/pinecone packages: same REST-over-HTTP
// control/data-plane split, generalized so any Pinecone-compatible
// vector index (host resolved once via describe_index, queried
// directly against that host afterward) can sit behind it.
package vectorstore

import (
	"context"
)

// Vector is one embedding to upsert, with provider-agnostic metadata.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is one query result: an id plus a similarity score (higher is
// better, same convention the teacher's pinecone adapter uses).
type Match struct {
	ID    string
	Score float64
}

// Store is the generalized vector-retrieval surface. Namespace
// isolates memory layers/chats from each other within one index.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]Match, error)
	QueryIDs(ctx context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]string, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}
