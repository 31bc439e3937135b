package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-zklogin/auth"
	"github.com/jrsteele09/go-zklogin/internal/config"
	"github.com/jrsteele09/go-zklogin/internal/metrics"
	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/rs/zerolog/log"
)

// TokenExchanger redeems authorization codes for the code-exchange proxy.
type TokenExchanger interface {
	Exchange(ctx context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, error)
}

// Deps holds what the HTTP surface needs besides configuration.
type Deps struct {
	Auth      *auth.Service
	Exchanger TokenExchanger // Optional; the proxy route is not served without it
	Sessions  kvstore.Store  // Backing store of the per-profile session stores
	Metrics   *metrics.Metrics
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	deps   Deps
}

func New(config config.Config, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		deps:   deps,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
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
	log.Info().Msgf("[%-19s] %s", displayMethod(method), path)
}

func logError(method, path, error string) {
	log.Warn().Msgf("[%-19s] %s %s", displayMethod(method), path, Red+error+ResetColor)
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
