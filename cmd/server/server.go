// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/CampusCourts/internal/api"
	"github.com/codr1/CampusCourts/internal/api/apiutil"
	"github.com/codr1/CampusCourts/internal/api/auth"
	"github.com/codr1/CampusCourts/internal/api/availability"
	"github.com/codr1/CampusCourts/internal/api/courts"
	"github.com/codr1/CampusCourts/internal/api/reports"
	"github.com/codr1/CampusCourts/internal/api/reservations"
	"github.com/codr1/CampusCourts/internal/booking"
	"github.com/codr1/CampusCourts/internal/config"
)

func newServer(cfg *config.Config, authenticator *auth.Authenticator) *http.Server {
	router := http.NewServeMux()
	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      newHandler(router, authenticator),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// newHandler wraps router so request IDs are assigned first and every later
// layer logs with them.
func newHandler(router http.Handler, authenticator *auth.Authenticator) http.Handler {
	return api.ChainMiddleware(
		router,
		api.WithAuth(authenticator),
		api.WithRecovery,
		api.WithLogging,
		api.WithRequestID,
	)
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Court catalog
	mux.HandleFunc("GET /api/v1/courts", courts.HandleListCourts)
	mux.HandleFunc("GET /api/v1/courts/{id}", courts.HandleGetCourt)

	// Availability
	mux.HandleFunc("GET /api/v1/availability", availability.HandleAvailability)

	// Reservations
	mux.HandleFunc("POST /api/v1/reservations", api.RequireUser(reservations.HandleCreateReservation))
	mux.HandleFunc("GET /api/v1/reservations/{id}", api.RequireUser(reservations.HandleGetReservation))
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", api.RequireUser(reservations.HandleCancelReservation))
	mux.HandleFunc("GET /api/v1/me/reservations", api.RequireUser(reservations.HandleListMyReservations))

	// Staff reporting
	mux.HandleFunc("GET /api/v1/admin/reservations", api.RequirePrivileged(reports.HandleListReservations))
	mux.HandleFunc("GET /api/v1/admin/reservations/summary", api.RequirePrivileged(reports.HandleSummary))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		apiutil.WriteKind(w, r, booking.KindNotFound, "route not found")
	})
}
