// internal/api/courts/handlers.go
package courts

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/apiutil"
	"github.com/codr1/CampusCourts/internal/booking"
)

const courtsQueryTimeout = 5 * time.Second

var (
	service     *booking.Service
	serviceOnce sync.Once
)

type courtsResponse struct {
	Courts []booking.Court `json:"courts"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

// GET /api/v1/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	courts, err := svc.ListCourts(ctx, r.URL.Query().Get("sport"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, courtsResponse{Courts: courts}); err != nil {
		logger.Error().Err(err).Msg("Failed to write courts response")
	}
}

// GET /api/v1/courts/{id}
func HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	court, err := svc.GetCourt(ctx, courtID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, court); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write court response")
	}
}

func loadService() *booking.Service {
	return service
}
