// Package embedding is the query-embedding collaborator ContextualRetrieval
// (C9) calls at its cache-probe and vector-search suspension points.
// Adapted from the Embed method of the teacher's platform/openai
// client: same request/response shape, generalized off one provider's
// fixed model string so any OpenAI-embeddings-compatible endpoint can
// sit behind it.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type httpEmbedder struct {
	log     *logger.Logger
	http    *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewHTTPEmbedder builds an Embedder against an OpenAI-embeddings-shaped
// REST endpoint, configured from EMBEDDING_API_KEY / EMBEDDING_BASE_URL
// / EMBEDDING_MODEL.
func NewHTTPEmbedder(log *logger.Logger) (Embedder, error) {
	if log == nil {
		return nil, fmt.Errorf("embedding: logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: missing EMBEDDING_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("EMBEDDING_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &httpEmbedder{
		log:     log.With("client", "EmbeddingClient"),
		http:    &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *httpEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(embeddingsRequest{Model: c.model, Input: clean}); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(c.baseURL, "/")+"/v1/embeddings", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding http %d: %s", resp.StatusCode, string(raw))
	}

	var out embeddingsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("embedding decode: %w", err)
	}

	vecs := make([][]float32, len(clean))
	for _, d := range out.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		if d.Index >= 0 && d.Index < len(vecs) {
			vecs[d.Index] = vec
		}
	}
	return vecs, nil
}
