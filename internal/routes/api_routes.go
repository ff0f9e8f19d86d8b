package routes

import (
	"droneops/showlog/internal/api"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers) {

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/shows", func(shows chi.Router) {
			shows.Get("/", handlers.ListShows())
			shows.Post("/", handlers.CreateShow())

			shows.Route("/{showID}", func(show chi.Router) {
				show.Get("/", handlers.GetShow())
				show.Patch("/", handlers.UpdateShow())
				show.Delete("/", handlers.DeleteShow())
				show.Post("/archive", handlers.ArchiveShowNow())

				show.Post("/entries", handlers.AddEntry())
				show.Patch("/entries/{entryID}", handlers.UpdateEntry())
				show.Delete("/entries/{entryID}", handlers.DeleteEntry())
			})
		})

		v1.Route("/archive", func(archive chi.Router) {
			archive.Get("/", handlers.ListArchivedShows())
			archive.Get("/{showID}", handlers.GetArchivedShow())
		})

		v1.Get("/staff", handlers.GetStaff())
		v1.Put("/staff", handlers.ReplaceStaff())

		v1.Get("/export/csv", handlers.ExportCSV())
		v1.Get("/export/json", handlers.ExportJSON())

		v1.Get("/webhook/status", handlers.GetWebhookStatus())
		v1.Put("/webhook/config", handlers.SetWebhookConfig())
	})
}
