// Package api provides the HTTP API server and handlers for the FitChallenge application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fitchallenge/fitchallenge-server/internal/search"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
	"github.com/fitchallenge/fitchallenge-server/internal/store/kv"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Deps are the long-lived components the server reads from.
type Deps struct {
	Store       store.Store
	KV          *kv.Store
	SearchIndex *search.SearchIndex // optional
	Services    *Services
	SSEManager  *sse.Manager
	AuthEvents  *sse.AuthBroadcaster
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins   []string
	MaxUploadSize int64
	// MediaHandler serves locally stored uploads under /media/. Nil when media
	// lives on a hosted backend.
	MediaHandler http.Handler
	// DisableRateLimit turns off the per-IP limit on auth operations.
	DisableRateLimit bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	kv              *kv.Store
	index           *search.SearchIndex
	services        *Services
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	authStream      *sse.AuthStreamHandler
	authRateLimiter *RateLimiter
	opts            Options
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Deps, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}

	s := &Server{
		store:      deps.Store,
		kv:         deps.KV,
		index:      deps.SearchIndex,
		services:   deps.Services,
		router:     chi.NewRouter(),
		logger:     logger,
		sseManager: deps.SSEManager,
		opts:       opts,
	}
	if deps.SSEManager != nil {
		s.sseHandler = sse.NewHandler(deps.SSEManager, logger)
	}
	if deps.AuthEvents != nil {
		s.authStream = sse.NewAuthStreamHandler(deps.AuthEvents, logger)
	}
	if !opts.DisableRateLimit {
		s.authRateLimiter = NewRateLimiter(authRatePerInterval, authRateInterval, authRateBurst)
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, humaConfig())
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources owned by the server.
func (s *Server) Close() {
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}
}

func humaConfig() huma.Config {
	cfg := huma.DefaultConfig("FitChallenge API", Version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json"))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.services.Auth))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerChallengeRoutes()
	s.registerPostRoutes()
	s.registerLeaderboardRoutes()
	s.registerMediaRoutes()

	// Server-sent event streams bypass huma: they hold the connection open
	// and write frames directly.
	s.router.Get("/api/v1/events", s.handleEventStream)
	s.router.Get("/api/v1/auth/stream", s.handleAuthStream)

	if s.opts.MediaHandler != nil {
		s.router.Handle("/media/*", http.StripPrefix("/media", cacheControl(CacheOneWeek, s.opts.MediaHandler)))
	}
}

func cacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

var bearerSecurity = []map[string][]string{{"bearer": {}}}
