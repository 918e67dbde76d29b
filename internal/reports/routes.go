package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the read-only report API over reader.
func SetupRoutes(reader RunReader) http.Handler {
	h := &Handler{reader: reader}
	r := chi.NewRouter()

	r.Get("/runs", h.ListRuns)
	r.Route("/runs/{run_id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/scores", h.Scores)
		r.Get("/best", h.Best)
	})

	return r
}
