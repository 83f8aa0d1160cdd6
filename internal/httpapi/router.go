package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"resumerank-engine/internal/metrics"
)

// NewRouter returns the router with middleware applied, so main() can still
// attach /shutdown (needs srv+token).
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, AccessLog(d.Logger), Recover(d.Logger), Cors)

	// Ranking
	rh := RankHandler{Pipeline: d.Pipeline, Metrics: d.Metrics, MaxUploadBytes: d.MaxUploadBytes}
	r.Post("/rank", rh.Rank)
	r.With(RateLimit(d.UploadLimiter)).Post("/upload", rh.Upload)

	// Runs
	runs := RunsHandler{DB: d.DB, Pipeline: d.Pipeline}
	r.Get("/runs", runs.List)
	r.Get("/runs/{id}", runs.Get)
	r.Delete("/runs/{id}", runs.Delete)
	r.Post("/runs/{id}/rerank", runs.Rerank)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		OnUpdate:    d.OnConfig,
		Hub:         d.Hub,
	}
	r.Get("/config", ch.Get)
	r.Put("/config", ch.Put)
	r.Get("/config/path", ch.Path)
	r.Get("/config/validate", ch.Validate)

	// Events
	eh := EventsHandler{Hub: d.Hub, Logger: d.Logger}
	r.Get("/events", eh.ServeSSE)
	r.Get("/ws", eh.ServeWS)

	// Ops
	hh := HealthHandler{DB: d.DB, Hub: d.Hub, Version: d.Version}
	r.Get("/health", hh.Health)
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Registry))
	}
	dbh := DBHandler{DB: d.DB}
	r.Post("/db/checkpoint", dbh.Checkpoint)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
