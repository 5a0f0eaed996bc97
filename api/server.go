/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RealIP:         Honors X-Forwarded-For behind a proxy
  3. requestLogger:  Structured request log + duration histogram
  4. Recoverer:      Panic recovery (500 instead of crash)
  5. CORS:           Cross-origin requests for the kiosk frontend

ROUTE GROUPS:
  /api/enroll           Kiosk enrollment
  /api/members/*        Member lookup and history
  /api/activities/*     Activity catalog
  /api/transfer etc.    Point-moving operations
  /api/admin/*          Admin operations
  /metrics              Prometheus scrape endpoint
  /health               Liveness probe

SECURITY NOTE:
  No authentication middleware. Deploy behind a gateway that provides it;
  /api/admin in particular must not be reachable from the kiosk network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/loyaltyd/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Kiosk routes
		r.Post("/enroll", h.Enroll)

		r.Route("/members", func(r chi.Router) {
			r.Get("/pin/{pin}", h.LookupMember)
			r.Get("/pin/{pin}/history", h.MemberHistory)
			r.Get("/phone/{phone}", h.CheckPhone)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Get("/{id}", h.GetActivity)
		})

		// Point-moving operations
		r.Post("/transfer", h.Transfer)
		r.Post("/redeem", h.Redeem)
		r.Post("/donate", h.Donate)
		r.Post("/purchase", h.Purchase)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Post("/", h.RegisterMember)
				r.Get("/ranking", h.Ranking)
				r.Post("/{id}/adjust", h.Adjust)
				r.Post("/{id}/penalty", h.Penalty)
				r.Post("/{id}/restitution", h.Restitution)
				r.Post("/{id}/reconcile", h.Reconcile)
				r.Post("/{id}/birthday-bonus", h.BirthdayBonus)
				r.Delete("/{id}", h.PurgeMember)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/{id}/withdraw", h.Withdraw)
				r.Post("/{id}/no-show", h.NoShow)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Post("/", h.CreateActivity)
				r.Put("/{id}", h.UpdateActivity)
				r.Post("/{id}/conclude", h.ConcludeActivity)
				r.Delete("/{id}", h.RadicalDeleteActivity)
				r.Get("/{id}/participants.csv", h.ExportParticipantsCSV)
			})

			r.Get("/stats", h.ProgramStats)
			r.Get("/ledger", h.GlobalLedger)
			r.Post("/reconcile", h.ReconcileAll)
			r.Post("/bonus-sweep", h.BonusSweep)
			r.Get("/notifications", h.Notifications)
			r.Post("/notifications/read", h.MarkNotificationsRead)
			r.Get("/export/members.txt", h.ExportMembersTXT)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	return r
}
