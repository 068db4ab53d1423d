// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/apiutil"
	"github.com/codr1/CampusCourts/internal/api/authz"
	"github.com/codr1/CampusCourts/internal/booking"
	"github.com/codr1/CampusCourts/internal/ratelimit"
)

const reservationsQueryTimeout = 5 * time.Second

var (
	service     *booking.Service
	limiter     *ratelimit.Limiter
	trustProxy  bool
	serviceOnce sync.Once
)

type reservationRequest struct {
	CourtID         int64  `json:"court_id"`
	StartUTC        string `json:"start_utc"`
	DurationMinutes int    `json:"duration_minutes"`
}

type reservationResponse struct {
	ReservationID int64 `json:"reservation_id"`
	booking.Reservation
}

// InitHandlers must be called during server startup before handling requests.
// A nil limiter disables rate limiting of new reservations.
func InitHandlers(svc *booking.Service, rl *ratelimit.Limiter, trustProxyHeaders bool) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
		limiter = rl
		trustProxy = trustProxyHeaders
	})
}

// POST /api/v1/reservations
func HandleCreateReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if limiter != nil {
		ip := ratelimit.GetClientIP(r, trustProxy)
		result := limiter.AllowReserve(user.ID, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(user.ID, ip, result.Reason)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
			apiutil.WriteKind(w, r, apiutil.KindRateLimited, "too many reservation attempts, retry later")
			return
		}
	}

	var req reservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{
			Status:  http.StatusBadRequest,
			Message: "invalid request body",
			Err:     err,
		})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "court_id", Reason: "is required"})
		return
	}
	if strings.TrimSpace(req.StartUTC) == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "start_utc", Reason: "is required"})
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartUTC))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "start_utc", Reason: "must be an RFC 3339 timestamp"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	reservation, err := svc.Reserve(ctx, booking.ReserveRequest{
		CourtID:         req.CourtID,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		RequesterID:     user.ID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/reservations/%d", reservation.ID))
	if err := apiutil.WriteJSON(w, http.StatusCreated, reservationResponse{
		ReservationID: reservation.ID,
		Reservation:   reservation,
	}); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to write reservation response")
	}
}

// GET /api/v1/reservations/{id}
func HandleGetReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	reservationID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	detail, err := svc.GetReservation(ctx, reservationID, authz.UserFromContext(r.Context()))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, detail); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to write reservation response")
	}
}

// DELETE /api/v1/reservations/{id}
func HandleCancelReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	reservationID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	reservation, err := svc.Cancel(ctx, reservationID, authz.UserFromContext(r.Context()))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, reservation); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to write cancellation response")
	}
}

// GET /api/v1/me/reservations?status=&from=&to=&page=&page_size=
func HandleListMyReservations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	filter, err := parseOwnFilter(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	filter.UserID = user.ID

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	// Listed as a plain user so staff see only their own bookings here too.
	self := &authz.AuthUser{ID: user.ID, Role: authz.RoleStudent}
	page, err := svc.ListReservations(ctx, self, filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, page); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservations response")
	}
}

func parseOwnFilter(r *http.Request) (booking.ReportFilter, error) {
	from, err := apiutil.OptionalInstant(r, "from")
	if err != nil {
		return booking.ReportFilter{}, err
	}
	to, err := apiutil.OptionalInstant(r, "to")
	if err != nil {
		return booking.ReportFilter{}, err
	}
	page, err := apiutil.OptionalInt(r, "page")
	if err != nil {
		return booking.ReportFilter{}, err
	}
	pageSize, err := apiutil.OptionalInt(r, "page_size")
	if err != nil {
		return booking.ReportFilter{}, err
	}
	return booking.ReportFilter{
		Status:   r.URL.Query().Get("status"),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func retryAfterSeconds(wait time.Duration) int {
	seconds := int((wait + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func loadService() *booking.Service {
	return service
}
