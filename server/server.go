// Package server is the demonstration web application for the efactura
// client library: it drives the browser authorization flow against the
// ANAF identity provider and proxies a few invoice API operations for the
// logged-in user.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-efactura/auth"
	"github.com/jrsteele09/go-efactura/efactura"
	"github.com/jrsteele09/go-efactura/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Server struct {
	router      *mux.Router
	config      config.Config
	tokens      *auth.TokenService
	authConfig  auth.Config
	environment efactura.Environment
	logger      zerolog.Logger
}

// New builds the demo server around a configured token service.
func New(cfg config.Config, tokens *auth.TokenService, authConfig auth.Config, logger zerolog.Logger) (*Server, error) {
	if tokens == nil {
		return nil, errors.New("[server.New] token service is required")
	}

	s := &Server{
		router:      mux.NewRouter(),
		config:      cfg,
		tokens:      tokens,
		authConfig:  authConfig,
		environment: efactura.Environment(cfg.GetEnvironment()),
		logger:      logger,
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.router.Use(s.LoggingMiddleware, s.RecoverMiddleware)

	s.router.HandleFunc("/", s.IndexHandler()).Methods(http.MethodGet)
	s.router.HandleFunc(RouteLogin, s.LoginHandler()).Methods(http.MethodGet)
	s.router.HandleFunc(RouteCallback, s.CallbackHandler()).Methods(http.MethodGet)
	s.router.HandleFunc(RouteLogout, s.LogoutHandler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.CorsMiddleware)
	api.HandleFunc("/messages", s.MessagesHandler()).Methods(http.MethodGet)
	api.HandleFunc("/upload", s.UploadHandler()).Methods(http.MethodPost)
	api.HandleFunc("/state", s.UploadStateHandler()).Methods(http.MethodGet)
}

// invoiceClient builds a per-request invoice API client bound to the
// user's token source, so each call picks up a freshly-validated token.
func (s *Server) invoiceClient(r *http.Request, userKey string) *efactura.Client {
	src := s.tokens.TokenSource(r.Context(), userKey)
	return efactura.NewClient(s.environment, src, efactura.WithLogger(s.logger))
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
