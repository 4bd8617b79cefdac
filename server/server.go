package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/subhub-server/auth"
	"github.com/jrsteele09/subhub-server/internal/config"
	"github.com/jrsteele09/subhub-server/internal/validator"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.AuthenticationService
	users     *users.Service
	validator *validator.Validator
}

func New(config config.Config, authService *auth.AuthenticationService, userService *users.Service) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] authentication service is required")
	}
	if userService == nil {
		return nil, errors.New("[Server New] user service is required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		auth:      authService,
		users:     userService,
		validator: validator.New(),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
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
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
