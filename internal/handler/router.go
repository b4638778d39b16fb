package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adjebara/people-search/backend/internal/handler/events"
	sessionHandler "github.com/adjebara/people-search/backend/internal/handler/session"
	middlewarePkg "github.com/adjebara/people-search/backend/internal/middleware"
	"github.com/adjebara/people-search/backend/internal/session"
)

// NewRouter wires HTTP routes to the session engine.
func NewRouter(engine *session.Engine, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(engine).RegisterRoutes(api)
		if hub != nil {
			hub.RegisterRoutes(api)
		}
	})

	return r
}
