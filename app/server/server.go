package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"readmekb/app/agent"
	"readmekb/app/api"
	"readmekb/app/middleware"
	"readmekb/enhancer"
	"readmekb/model"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/store"
	"readmekb/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    16 * 1024 * 1024,
}

// Store is the knowledge store the API serves from.
type Store interface {
	store.KnowledgeStore
	api.Pinger
}

type Deps struct {
	Store    Store
	Parser   *parser.Parser
	Enhancer *enhancer.Enhancer
	QA       *qa.Generator
	Embedder model.EmbedderInterface
	Agent    api.Answerer
}

// NewApp wires the HTTP routes.
func NewApp(d Deps) *fiber.App {
	var (
		app            = fiber.New(config)
		checkHandler   = api.NewCheckHandler(d.Store)
		configHandler  = api.NewConfigHandler(d.Parser)
		parseHandler   = api.NewParseHandler(d.Parser, d.Enhancer, d.QA)
		chunkHandler   = api.NewChunkHandler(d.Store)
		requestHandler = api.NewRequestHandler(d.Store, d.Embedder, d.Agent)
	)
	app.Use(middleware.RequestLogger(slog.Default()))

	check := app.Group("/check")
	check.Get("/healthy", checkHandler.HandleHealthy)
	check.Get("/ready", checkHandler.HandleReady)

	apiv1 := app.Group("/api/v1")
	apiv1.Get("/config", configHandler.HandleGetConfig)
	apiv1.Post("/parse", parseHandler.HandleParse)
	apiv1.Get("/chunks", chunkHandler.HandleListChunks)
	apiv1.Get("/chunks/lookup", chunkHandler.HandleGetChunk)
	apiv1.Post("/request", requestHandler.HandleRequest)

	return app
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
	store      *store.PostgresStore
}

// NewServer connects to Postgres, makes sure the schema exists and builds
// the app.
func NewServer(ctx context.Context, cfg types.Config) (*Server, error) {
	pool, err := store.NewPostgresStore(ctx, cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error to connect to Postgres database: %w", err)
	}
	if err := pool.Init(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error to create tables: %w", err)
	}

	p, err := parser.New(parser.DefaultConfig())
	if err != nil {
		pool.Close()
		return nil, err
	}

	app := NewApp(Deps{
		Store:    pool,
		Parser:   p,
		Enhancer: enhancer.New(enhancer.DefaultConfig()),
		QA:       qa.New(qa.DefaultConfig()),
		Embedder: model.NewEmbedder(cfg.Embedding),
		Agent:    agent.New(cfg.LLM),
	})
	return &Server{
		listenAddr: cfg.ServerAddr,
		logger:     slog.Default(),
		app:        app,
		store:      pool,
	}, nil
}

func (s *Server) Run() error {
	s.logger.Info("server started", "addr", s.listenAddr)
	if err := s.app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return err
	}
	return nil
}

func (s *Server) Stop() {
	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		s.logger.Error("error to shutdown server", "error", err)
	}
	s.store.Close()
	s.logger.Info("server stopped")
}
