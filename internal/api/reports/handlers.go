// internal/api/reports/handlers.go
package reports

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

const reportsQueryTimeout = 10 * time.Second

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

// GET /api/v1/admin/reservations
//
// Filters: sport, court_id, user_id, status, from, to, search, page, page_size.
func HandleListReservations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	viewer, err := authz.RequirePrivileged(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	filter, err := parseReportFilter(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportsQueryTimeout)
	defer cancel()

	page, err := svc.ListReservations(ctx, viewer, filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, page); err != nil {
		logger.Error().Err(err).Msg("Failed to write report response")
	}
}

// GET /api/v1/admin/reservations/summary?from=&to=&sport=
//
// from and to default to the current venue week starting today.
func HandleSummary(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
		return
	}

	viewer, err := authz.RequirePrivileged(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	from, err := apiutil.OptionalInstant(r, "from")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	to, err := apiutil.OptionalInstant(r, "to")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rangeStart, rangeEnd := defaultRange(svc, from, to)

	ctx, cancel := context.WithTimeout(r.Context(), reportsQueryTimeout)
	defer cancel()

	summary, err := svc.Summarize(ctx, viewer, rangeStart, rangeEnd, r.URL.Query().Get("sport"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, summary); err != nil {
		logger.Error().Err(err).Msg("Failed to write summary response")
	}
}

func defaultRange(svc *booking.Service, from, to *time.Time) (time.Time, time.Time) {
	var start, end time.Time
	if from != nil {
		start = *from
	} else {
		local := svc.Grid().In(time.Now())
		start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location()).UTC()
	}
	if to != nil {
		end = *to
	} else {
		end = start.AddDate(0, 0, 7)
	}
	return start, end
}

func parseReportFilter(r *http.Request) (booking.ReportFilter, error) {
	courtID, err := apiutil.OptionalPositiveInt64(r, "court_id")
	if err != nil {
		return booking.ReportFilter{}, err
	}
	userID, err := apiutil.OptionalPositiveInt64(r, "user_id")
	if err != nil {
		return booking.ReportFilter{}, err
	}
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
	query := r.URL.Query()
	return booking.ReportFilter{
		Sport:    query.Get("sport"),
		CourtID:  courtID,
		UserID:   userID,
		Status:   query.Get("status"),
		From:     from,
		To:       to,
		Search:   query.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func loadService() *booking.Service {
	return service
}
