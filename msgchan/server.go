package msgchan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/kit"
	"github.com/hazyhaar/lyricsroman/romanize"
	"github.com/hazyhaar/lyricsroman/shield"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Handler answers romanization requests (typically Orchestrator.Handle).
	Handler romanize.Handler
	// TokenHash is a bcrypt hash of the bearer token. Empty disables auth.
	TokenHash string
	// Version is reported by /health and the MCP implementation.
	Version string
	// RateLimit caps romanization requests per client IP per minute.
	// Zero disables it.
	RateLimit int
	Logger    *slog.Logger
}

// Server exposes a Handler over HTTP and MCP.
type Server struct {
	cfg      ServerConfig
	endpoint kit.Endpoint
	mcp      *mcp.Server
	router   chi.Router
	newID    idgen.Generator
	logger   *slog.Logger
}

// NewServer builds the router:
//
//	GET  /health
//	POST /message   romanize.Request -> romanize.Response
//	     /mcp       MCP streamable HTTP, tool romanize_text
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		cfg:      cfg,
		endpoint: endpointFor(cfg.Handler, cfg.Logger),
		newID:    idgen.Prefixed("req_", idgen.Default),
		logger:   cfg.Logger,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "lyricsroman", Version: cfg.Version}, nil)
	RegisterMCP(s.mcp, cfg.Handler, cfg.Logger)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(shield.SecurityHeaders(shield.APIHeaders()))
	r.Use(shield.RequestID(s.newID, cfg.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": cfg.Version})
	})

	r.Group(func(r chi.Router) {
		if cfg.TokenHash != "" {
			r.Use(bearerAuth(cfg.TokenHash))
		}
		r.Use(shield.NewRateLimiter(cfg.RateLimit, time.Minute).Middleware)
		r.Post("/message", s.handleMessage)
		r.Handle("/mcp", mcpHandler)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// MCP returns the MCP server, for stdio or in-memory transports.
func (s *Server) MCP() *mcp.Server { return s.mcp }

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req romanize.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	ctx := kit.WithTransport(r.Context(), "http")
	ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)

	resp, err := s.endpoint(ctx, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("msgchan: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("msgchan: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("msgchan: shutdown: %w", err)
	}
	s.logger.Info("msgchan: stopped")
	return nil
}

// bearerAuth rejects requests whose bearer token does not match hash.
func bearerAuth(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashToken returns the bcrypt hash to put in ServerConfig.TokenHash.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("msgchan: hash token: %w", err)
	}
	return string(h), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
