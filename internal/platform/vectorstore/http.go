package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// Config points the HTTP store at a Pinecone-compatible vector index:
// a control-plane base URL used once to resolve the index's dedicated
// data-plane host, then queried directly afterward (the teacher's
// split between clients/pinecone and platform/pinecone).
type Config struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	IndexName  string
	IndexHost  string // skips DescribeIndex when already known
	Timeout    time.Duration
}

type httpStore struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
	host string
}

// NewHTTPStore builds a Store backed by a Pinecone-compatible REST API.
// It resolves cfg.IndexHost via the control plane on first use unless
// IndexHost is already supplied.
func NewHTTPStore(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("vectorstore: logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("vectorstore: missing API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &httpStore{
		log:  log.With("client", "VectorStore"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		host: strings.TrimSpace(cfg.IndexHost),
	}, nil
}

type indexDescription struct {
	Host   string `json:"host"`
	Status struct {
		Ready bool `json:"ready"`
	} `json:"status"`
}

func (s *httpStore) resolveHost(ctx context.Context) (string, error) {
	if s.host != "" {
		return s.host, nil
	}
	if strings.TrimSpace(s.cfg.IndexName) == "" {
		return "", fmt.Errorf("vectorstore: index host unknown and no index name configured")
	}
	u := strings.TrimRight(s.cfg.BaseURL, "/") + "/indexes/" + s.cfg.IndexName
	out, err := doJSON[indexDescription](s, ctx, "GET", u, nil)
	if err != nil {
		return "", fmt.Errorf("vectorstore: describe index: %w", err)
	}
	if strings.TrimSpace(out.Host) == "" {
		return "", fmt.Errorf("vectorstore: describe index returned empty host")
	}
	s.host = out.Host
	return s.host, nil
}

type vectorWire struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vectorWire `json:"vectors"`
	Namespace string       `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

func (s *httpStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return err
	}
	wire := make([]vectorWire, len(vectors))
	for i, v := range vectors {
		wire[i] = vectorWire{ID: v.ID, Values: v.Values, Metadata: v.Metadata}
	}
	u := "https://" + host + "/vectors/upsert"
	_, err = doJSON[upsertResponse](s, ctx, "POST", u, upsertRequest{Vectors: wire, Namespace: namespace})
	return err
}

type queryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector,omitempty"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata,omitempty"`
}

type queryMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

func (s *httpStore) query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) (*queryResponse, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vectorstore: query vector required")
	}
	if topK <= 0 {
		topK = 10
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return nil, err
	}
	u := "https://" + host + "/query"
	return doJSON[queryResponse](s, ctx, "POST", u, queryRequest{
		Namespace: namespace,
		Vector:    vector,
		TopK:      topK,
		Filter:    filter,
	})
}

func (s *httpStore) QueryMatches(ctx context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]Match, error) {
	resp, err := s.query(ctx, namespace, query, topK, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(resp.Matches))
	for i, m := range resp.Matches {
		out[i] = Match{ID: m.ID, Score: m.Score}
	}
	return out, nil
}

func (s *httpStore) QueryIDs(ctx context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]string, error) {
	resp, err := s.query(ctx, namespace, query, topK, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(resp.Matches))
	for i, m := range resp.Matches {
		ids[i] = m.ID
	}
	return ids, nil
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

func (s *httpStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	host, err := s.resolveHost(ctx)
	if err != nil {
		return err
	}
	u := "https://" + host + "/vectors/delete"
	_, err = doJSON[struct{}](s, ctx, "POST", u, deleteRequest{IDs: ids, Namespace: namespace})
	return err
}

func doJSON[T any](s *httpStore, ctx context.Context, method, url string, body any) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", s.cfg.APIVersion)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vectorstore http %d: %s", resp.StatusCode, string(raw))
	}

	var out T
	if len(raw) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("vectorstore decode error: %w; raw=%s", err, string(raw))
	}
	return &out, nil
}
