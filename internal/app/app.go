// Package app wires every collaborator the info-bar core depends on
// into a single running process, mirroring the teacher's top-level
// App struct (logger, db, router, services) generalized to this
// domain's components.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/engine"
	"github.com/neurobridge-labs/infobar-core/internal/host"
	"github.com/neurobridge-labs/infobar-core/internal/httpapi"
	"github.com/neurobridge-labs/infobar-core/internal/platform/cachekv"
	"github.com/neurobridge-labs/infobar-core/internal/platform/embedding"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/graphdb"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/platform/tracing"
	"github.com/neurobridge-labs/infobar-core/internal/platform/vectorstore"
	"github.com/neurobridge-labs/infobar-core/internal/retrieval"
	"github.com/neurobridge-labs/infobar-core/internal/rules"
	"github.com/neurobridge-labs/infobar-core/internal/store"
)

// App bundles the process's wiring: the logger, the database
// connection, the HTTP router, and the Engine that drives both
// control-flow paths.
type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Engine *engine.Engine
	Bus    eventbus.Bus
	Cache  cachekv.Store

	cancel context.CancelFunc
}

// New builds the full App from environment configuration, mirroring
// the teacher's app.New() shape: logger, then storage, then domain
// services, then the router.
func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	tracing.Init(log)

	db, err := openDB(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(&store.PanelRowModel{}); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	dataStore := store.New(db, log)

	bus, err := wireBus(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	cache := wireCache(log)

	ext, err := loadExtension(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load extension config: %w", err)
	}

	ruleCatalog := rules.New(rules.NewStaticSource(nil, nil), bus, log)
	retriever := wireRetriever(log)
	hostCtx := host.NewInMemory(config.GetEnv("DEFAULT_CHAT_ID", "demo-chat", log))

	eng := engine.New(log, hostCtx, dataStore, bus, ruleCatalog, retriever, ext)

	router := wireRouter(log, eng, hostCtx)

	return &App{
		Log:    log,
		DB:     db,
		Router: router,
		Engine: eng,
		Bus:    bus,
		Cache:  cache,
	}, nil
}

func openDB(log *logger.Logger) (*gorm.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	}
	log.Warn("POSTGRES_DSN not set, falling back to an in-process sqlite database")
	return gorm.Open(sqlite.Open(config.GetEnv("SQLITE_PATH", "infobar.db", log)), &gorm.Config{})
}

func wireBus(log *logger.Logger) (eventbus.Bus, error) {
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) == "" {
		log.Warn("REDIS_ADDR not set, falling back to an in-process event bus")
		return eventbus.NewInMemory(), nil
	}
	return eventbus.NewRedisBus(log)
}

func wireCache(log *logger.Logger) cachekv.Store {
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) == "" {
		return cachekv.NewInMemory()
	}
	c, err := cachekv.NewRedisStore(log, "infobar")
	if err != nil {
		log.Warn("redis cache unavailable, falling back to in-process cache", "error", err)
		return cachekv.NewInMemory()
	}
	return c
}

func loadExtension(log *logger.Logger) (config.Extension, error) {
	path := strings.TrimSpace(os.Getenv("EXTENSION_CONFIG_PATH"))
	if path == "" {
		return config.Extension{}, nil
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return config.Extension{}, fmt.Errorf("read %s: %w", path, err)
	}
	return config.ParseExtension(doc)
}

// wireRetriever assembles C9's collaborators from environment
// configuration. Every leg degrades independently rather than failing
// startup (spec §4.9, §7): without a working embedding client the
// embedder stays nil, the vector store falls back to an in-memory
// store, and the graph falls back to an empty layer-scan source.
func wireRetriever(log *logger.Logger) *retrieval.Retriever {
	var embedder embedding.Embedder
	if strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")) != "" {
		e, err := embedding.NewHTTPEmbedder(log)
		if err != nil {
			log.Warn("embedding client unavailable", "error", err)
		} else {
			embedder = e
		}
	}

	var vectorStore vectorstore.Store
	if strings.TrimSpace(os.Getenv("PINECONE_API_KEY")) != "" {
		v, err := vectorstore.NewHTTPStore(log, vectorstore.Config{
			APIKey:    os.Getenv("PINECONE_API_KEY"),
			IndexName: os.Getenv("PINECONE_INDEX"),
		})
		if err != nil {
			log.Warn("vector store unavailable, falling back to in-memory store", "error", err)
			vectorStore = vectorstore.NewInMemory()
		} else {
			vectorStore = v
		}
	} else {
		vectorStore = vectorstore.NewInMemory()
	}

	graphSource, err := graphdb.NewFromEnv(log)
	if err != nil {
		log.Warn("graph database unavailable", "error", err)
	}
	var graph graphdb.Source
	if graphSource != nil {
		graph = graphSource
	} else {
		graph = graphdb.NewLayerScanSource(func() map[string][]graphdb.Neighbor { return nil })
	}

	layers := retrieval.NewInMemoryLayers()
	return retrieval.New(log, embedder, vectorStore, graph, layers)
}

func wireRouter(log *logger.Logger, eng *engine.Engine, hostCtx *host.InMemory) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	httpapi.Register(router, httpapi.Dependencies{
		Log:    log,
		Engine: eng,
		Host:   hostCtx,
	})
	return router
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app: not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	tracing.Shutdown(context.Background())
	if a.Log != nil {
		a.Log.Sync()
	}
}
