package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/relaychat/server/config"
	"github.com/relaychat/server/internal/db"
	"github.com/relaychat/server/internal/handlers"
	"github.com/relaychat/server/internal/hub"
	"github.com/relaychat/server/internal/services"
	"github.com/relaychat/server/internal/store"
	"github.com/relaychat/server/internal/token"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server, router, database handle and broadcast hub.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	hub        *hub.Hub
}

// New constructs a Server with basic middleware and defaults. The signing
// secret is a hard startup requirement: without it no session could ever be
// issued or verified, so refusing to boot beats failing per-request.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("CHAT_SECRET_KEY is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo)
	tokens := token.NewManager(cfg.SecretKey)

	chatHub := hub.NewHub()
	go chatHub.Run()

	wsHandler := handlers.NewWSHandler(chatHub, tokens, cfg.AllowedOrigins, cfg.MaxMessageSize)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/healthz", handlers.Healthz)
		handlers.AuthRouter(r, userService, tokens)
	})
	// The WebSocket route stays outside the timeout middleware: connections
	// are long-lived by design.
	router.Get("/ws", wsHandler.ServeWS)

	port := cfg.ServerPort
	if port == 0 {
		port = 3001
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		hub:        chatHub,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections, drains the hub and closes the
// database pool.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if hubErr := s.hub.Shutdown(shutdownTimeout); err == nil {
		err = hubErr
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
