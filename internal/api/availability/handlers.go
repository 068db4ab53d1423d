// internal/api/availability/handlers.go
package availability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/apiutil"
	"github.com/codr1/CampusCourts/internal/api/authz"
	"github.com/codr1/CampusCourts/internal/booking"
)

const availabilityQueryTimeout = 5 * time.Second

var (
	service     *booking.Service
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

// GET /api/v1/availability?date=YYYY-MM-DD&sport=&court_id=&slot_minutes=
//
// court_id accepts a comma-separated list. Anonymous callers get the same
// grid with by_me always false.
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	query := r.URL.Query()
	courtIDs, err := apiutil.ParseIDList(query.Get("court_id"), "court_id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	slotMinutes, err := apiutil.OptionalInt(r, "slot_minutes")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	result, err := svc.Availability(ctx, booking.AvailabilityQuery{
		Sport:       query.Get("sport"),
		CourtIDs:    courtIDs,
		Date:        query.Get("date"),
		SlotMinutes: slotMinutes,
		Viewer:      authz.UserFromContext(r.Context()),
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := apiutil.WriteJSON(w, http.StatusOK, result); err != nil {
		logger.Error().Err(err).Msg("Failed to write availability response")
	}
}

func loadService() *booking.Service {
	return service
}
