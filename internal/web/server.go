package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/engine"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/storage"
)

// Server renders the operator dashboard and accepts the manual overrides
// (settings, TSL changes, market-close toggles, manual exits).
type Server struct {
	httpServer *http.Server
	repo       *storage.Repository
	market     engine.MarketData
	admin      *engine.Admin
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(repo *storage.Repository, md engine.MarketData, admin *engine.Admin, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		repo:   repo,
		market: md,
		admin:  admin,
		config: cfg,
		logger: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/logs", s.handleLogs)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/trades/stop", s.handleSetStop)
	mux.HandleFunc("/trades/market-close", s.handleMarketCloseToggle)
	mux.HandleFunc("/trades/exit", s.handleManualExit)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
