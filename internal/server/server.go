package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/techgaint000/SecureAccountManager/internal/handler"
	"github.com/techgaint000/SecureAccountManager/internal/middleware"
	"github.com/techgaint000/SecureAccountManager/internal/store"
	"github.com/techgaint000/SecureAccountManager/internal/token"
	ws "github.com/techgaint000/SecureAccountManager/internal/websocket"
)

// Config carries the server-level knobs extracted from the app config.
type Config struct {
	JWTSecret  string
	AccessTTL  time.Duration
	SessionTTL time.Duration
	BcryptCost int
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	platformH    *handler.PlatformHandler
	accountH     *handler.AccountHandler
	sessionStore *store.SessionStore
	tokens       *token.Provider
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "events"))
	tokens := token.NewProvider(cfg.JWTSecret, cfg.AccessTTL)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	platformStore := store.NewPlatformStore(db)
	accountStore := store.NewAccountStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, tokens, hub, cfg.SessionTTL, cfg.BcryptCost, logger.With("component", "auth")),
		platformH:    handler.NewPlatformHandler(platformStore, logger.With("component", "platform")),
		accountH:     handler.NewAccountHandler(accountStore, logger.With("component", "account")),
		sessionStore: sessionStore,
		tokens:       tokens,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public auth routes (no bearer token required)
	outerMux.HandleFunc("POST /auth/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/refresh", s.authH.Refresh)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Auth routes that require authentication
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /auth/session", s.authH.Session)
	mux.HandleFunc("GET /auth/user", s.authH.User)

	// Auth-state-change event stream
	mux.HandleFunc("GET /auth/events", ws.HandleEvents(s.hub, s.logger.With("component", "events")))

	// Platform API routes
	mux.HandleFunc("GET /api/platforms", s.platformH.List)
	mux.HandleFunc("POST /api/platforms", s.platformH.Create)
	mux.HandleFunc("PUT /api/platforms/{id}", s.platformH.Update)
	mux.HandleFunc("DELETE /api/platforms/{id}", s.platformH.Delete)

	// Account API routes
	mux.HandleFunc("GET /api/accounts", s.accountH.List)
	mux.HandleFunc("POST /api/accounts", s.accountH.Create)
	mux.HandleFunc("PUT /api/accounts/{id}", s.accountH.Update)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.accountH.Delete)
}
