// Package server exposes the account service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/federation"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/rs/zerolog/log"
)

// IdentityVerifier turns a Google ID token or authorization code into a
// verified identity. *federation.GoogleVerifier satisfies it.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (*federation.Identity, error)
	Exchange(ctx context.Context, code string) (*federation.Identity, error)
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PRODUCTION")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	accounts *auth.AccountService
	google   IdentityVerifier
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithIdentityVerifier makes the Google routes require a verified ID token or
// authorization code instead of trusting the googleId in the request body.
func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *Server) {
		s.google = v
	}
}

func New(cfg config.Config, accounts *auth.AccountService, options ...Option) (*Server, error) {
	if accounts == nil {
		return nil, fmt.Errorf("[Server New] account service is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		accounts: accounts,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	log.Info().Str("origins", cfg.GetAllowedOrigins().String()).Msg("CORS allowed origins")

	// CORS runs ahead of the mux so preflight requests never reach a route.
	s.handler = ChainMiddleware(s.mux.ServeHTTP,
		s.RecoverMiddleware,
		s.LoggingMiddleware,
		s.SecurityHeadersMiddleware,
		s.CorsMiddleware,
	)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", displayMethod(method), path)
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
