// Package graphdb is the graph-retrieval collaborator ContextualRetrieval
// (C9) delegates its graph path to in production. Adapted from
// platform/neo4jdb's client bootstrap (env-driven URI/auth, connection
// pool sizing, VerifyConnectivity on construction).
package graphdb

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// Neighbor is one importance-ranked memory node surfaced by the graph
// path (§4.9 step 3: "pick top-N memories across layers by importance
// >= 0.6, sorted by recency; score = importance").
type Neighbor struct {
	ID         string
	Content    string
	Importance float64
	Timestamp  time.Time
	Layer      string
}

// Source is what the retrieval package's graph path depends on.
type Source interface {
	ImportantNeighbors(ctx context.Context, chatID string, minImportance float64, limit int) ([]Neighbor, error)
}

type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// NewFromEnv mirrors platform/neo4jdb.NewFromEnv: returns (nil, nil)
// when NEO4J_URI is unset so callers can treat an absent graph backend
// as "no graph path" rather than a hard startup failure.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("graphdb: logger required")
	}

	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, nil
	}

	user := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if user == "" {
		user = "neo4j"
	}
	password := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD"))
	database := strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))

	timeoutSec := 10
	if v := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxPool := 50
	if v := strings.TrimSpace(os.Getenv("NEO4J_MAX_POOL_SIZE")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxPool = parsed
		}
	}

	auth := neo4j.BasicAuth(user, password, "")
	driver, err := neo4j.NewDriverWithContext(uri, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("graphdb: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphdb: verify connectivity: %w", err)
	}

	return &Client{
		driver:   driver,
		database: database,
		log:      log.With("client", "GraphDB"),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

// ImportantNeighbors matches memory nodes for chatID above minImportance,
// ordered most-recent-first, capped at limit.
func (c *Client) ImportantNeighbors(ctx context.Context, chatID string, minImportance float64, limit int) ([]Neighbor, error) {
	if c == nil || c.driver == nil {
		return nil, fmt.Errorf("graphdb: not connected")
	}
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Memory {chatId: $chatId})
		WHERE m.importance >= $minImportance
		RETURN m.id AS id, m.content AS content, m.importance AS importance, m.timestamp AS timestamp, m.layer AS layer
		ORDER BY m.timestamp DESC
		LIMIT $limit
	`, map[string]any{
		"chatId":        chatID,
		"minImportance": minImportance,
		"limit":         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("graphdb: query neighbors: %w", err)
	}

	var out []Neighbor
	for result.Next(ctx) {
		rec := result.Record()
		n := Neighbor{}
		if v, ok := rec.Get("id"); ok {
			n.ID, _ = v.(string)
		}
		if v, ok := rec.Get("content"); ok {
			n.Content, _ = v.(string)
		}
		if v, ok := rec.Get("importance"); ok {
			n.Importance, _ = v.(float64)
		}
		if v, ok := rec.Get("layer"); ok {
			n.Layer, _ = v.(string)
		}
		if v, ok := rec.Get("timestamp"); ok {
			if t, ok := v.(time.Time); ok {
				n.Timestamp = t
			}
		}
		out = append(out, n)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graphdb: read neighbors: %w", err)
	}
	return out, nil
}
