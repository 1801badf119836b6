package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"incidentdedup/arbiter"
	"incidentdedup/database"
	"incidentdedup/dedup"
	"incidentdedup/internal/config"
	"incidentdedup/server/middleware"

	"golang.org/x/time/rate"
)

// Server HTTP сервер движка дедупликации: принимает пакеты событий-кандидатов,
// прогоняет конвейер и отдает канонические записи с картой происхождения
type Server struct {
	config       *config.Config
	db           *database.DedupDB
	orchestrator *dedup.DeduplicationOrchestrator
	logger       *slog.Logger
	httpServer   *http.Server
}

// NewServer создает сервер со всеми зависимостями
func NewServer(cfg *config.Config, db *database.DedupDB) *Server {
	var oracle dedup.ArbiterOracle = dedup.NewNoopOracle()
	if cfg.ArbiterEnabled {
		oracle = arbiter.NewHTTPOracle(arbiter.OracleConfig{
			BaseURL:   cfg.ArbiterBaseURL,
			APIKey:    cfg.ArbiterAPIKey,
			Model:     cfg.ArbiterModel,
			Timeout:   cfg.ArbiterTimeout,
			RateLimit: rate.Limit(cfg.ArbiterRPS),
		})
	}

	orchestrator := dedup.NewDefaultOrchestrator(oracle, dedup.GroupingConfig{
		SimilarityThreshold: cfg.SimilarityThreshold,
		Workers:             cfg.Workers,
	})

	return &Server{
		config:       cfg,
		db:           db,
		orchestrator: orchestrator,
		logger:       slog.Default().With("component", "dedup_server"),
	}
}

// Handler собирает gin.Engine с middleware и маршрутами
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinLoggingMiddleware(s.logger))

	handler := NewDedupHandler(s.db, s.orchestrator, s.logger)

	router.GET("/health", handler.HandleHealth)

	api := router.Group("/api")
	{
		api.POST("/dedup/run", handler.HandleRunDeduplication)
		api.GET("/events", handler.HandleGetCanonicalEvents)
		api.GET("/events/:id/lineage", handler.HandleGetLineage)
		api.GET("/clusters", handler.HandleGetClusters)
		api.GET("/stats", handler.HandleGetStats)
	}

	return router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // прогон большого пакета может быть долгим
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Сервер запускается на порту %s", s.config.Port)
	log.Printf("API доступно по адресу: http://localhost%s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Println("Останавливаем HTTP сервер...")
	return s.httpServer.Shutdown(ctx)
}
