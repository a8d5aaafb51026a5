/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard UI

ROUTE GROUPS:
  /api/model, /api/state, /api/rewards, /api/trend, /api/audit   Views
  /api/import/*         Paste and snapshot imports
  /api/export/*         Downloads
  /api/accounts|bookings|hotels|sales|promo-rewards|settings     Edits
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus metrics
  /*                    Static files (dashboard UI), when built

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/opsdash/serve.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/model", h.GetModel)
		r.Get("/state", h.GetState)
		r.Get("/rewards", h.GetRewards)
		r.Get("/trend", h.GetTrend)
		r.Get("/audit", h.GetAudit)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/import", func(r chi.Router) {
			r.Post("/bookings", h.ImportBookings)
			r.Post("/accounts", h.ImportAccounts)
			r.Post("/spend", h.ImportSpend)
			r.Post("/blocklist", h.ImportBlockList)
			r.Post("/json", h.ImportJSON)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/json", h.ExportJSON)
			r.Get("/accounts.csv", h.ExportAccountsCSV)
			r.Get("/rewards.csv", h.ExportRewardsCSV)
			r.Get("/workbook.xlsx", h.ExportWorkbook)
			r.Get("/ready.tsv", h.ExportReadyTSV)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Patch("/{email}", h.UpdateAccount)
			r.Delete("/{email}", h.DeleteAccount)
		})
		r.Patch("/bookings/{id}", h.UpdateBooking)
		r.Route("/hotels", func(r chi.Router) {
			r.Post("/", h.CreateHotel)
			r.Patch("/{id}", h.UpdateHotel)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.CreateSale)
			r.Patch("/{id}", h.UpdateSale)
		})
		r.Post("/promo-rewards", h.CreatePromoReward)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetState)
		})
	})

	// Serve the built dashboard when present
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}
	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	}

	return r
}
