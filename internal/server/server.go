package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/powerstrip"
	"github.com/xtort/kasa-hs300/internal/protocol"
)

// Controller is the slice of the device session the API needs.
// *powerstrip.Strip satisfies it.
type Controller interface {
	Info() powerstrip.DeviceInfo
	Outlets() []powerstrip.Outlet
	RefreshStatus() error
	SetOutlet(sel powerstrip.Selector, state powerstrip.State) error
	SetAll(state powerstrip.State) error
	PowerDraw(sel powerstrip.Selector) (*protocol.EnergyReading, error)
}

// Server is the HTTP API server for one power strip.
type Server struct {
	// mu serializes all device access: handlers, the websocket poller
	// and refreshes.
	mu    sync.Mutex
	strip Controller

	pollInterval time.Duration
	router       chi.Router
	server       *http.Server
}

// New creates a server for a connected strip. pollInterval is the
// websocket status push period; zero means 5 seconds.
func New(strip Controller, pollInterval time.Duration) *Server {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	s := &Server{
		strip:        strip,
		pollInterval: pollInterval,
		router:       chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.HandleHealth)
		r.Get("/device", s.HandleDevice)
		r.Get("/outlets", s.HandleListOutlets)
		r.Post("/outlets/state", s.HandleSetAll)
		r.Route("/outlets/{slot}", func(r chi.Router) {
			r.Get("/power", s.HandlePowerDraw)
			r.Post("/state", s.HandleSetOutlet)
		})
		r.Post("/refresh", s.HandleRefresh)
	})

	s.router.Get("/ws", s.HandleWebSocket)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	logging.Info("starting HTTP API server",
		zap.String("addr", addr),
		zap.Duration("poll_interval", s.pollInterval),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
