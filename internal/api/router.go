package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/deathnote/deathnote/internal/api/handler"
	"github.com/deathnote/deathnote/internal/api/middleware"
	"github.com/deathnote/deathnote/internal/victim"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Service  *victim.Service
	DBPinger handler.DBPinger
	Version  string
}

// NewRouter creates and configures a chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	victimHandler := handler.NewVictimHandler(deps.Service)
	r.Route("/victims", func(r chi.Router) {
		r.Post("/", victimHandler.Create)
		r.Get("/", victimHandler.List)
		r.Delete("/", victimHandler.DeleteAll)
		r.Get("/{term}", victimHandler.Find)
		r.Patch("/deathtype/{id}", victimHandler.UpdateDeathType)
		r.Patch("/deathdetails/{id}", victimHandler.UpdateDetails)
		r.Delete("/{id}", victimHandler.Delete)
	})

	return r
}
