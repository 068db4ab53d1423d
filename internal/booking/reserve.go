package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	appdb "github.com/codr1/CampusCourts/internal/db"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
	"github.com/codr1/CampusCourts/internal/timegrid"
)

type ReserveRequest struct {
	CourtID         int64
	Start           time.Time
	DurationMinutes int
	RequesterID     int64
}

// Reserve books [Start, Start+Duration) on a court for the requester. The
// requested time is never shifted: a taken or invalid interval is rejected.
// Overlap is re-checked and every covered grid unit is claimed inside one
// write transaction, so of two concurrent requests for intersecting
// intervals at most one commits.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
	logger := log.Ctx(ctx)
	if req.RequesterID <= 0 {
		return Reservation{}, invalid("user_id", "is required")
	}
	if !s.durationAllowed(req.DurationMinutes) {
		return Reservation{}, invalid("duration_minutes", "must be one of "+s.durationList())
	}
	if req.Start.IsZero() {
		return Reservation{}, invalid("start_utc", "is required")
	}
	start := req.Start.UTC()
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
	if !s.grid.Aligned(start) {
		return Reservation{}, invalid("start_utc", "must align to the booking grid")
	}
	now := s.clock()
	if timegrid.IsPast(start, now, s.pastGuard) {
		return Reservation{}, invalid("start_utc", "is in the past")
	}
	if !s.grid.WithinWindow(start, end) {
		return Reservation{}, invalid("start_utc", "must fall within operating hours "+s.windowLabel())
	}

	if _, err := s.GetCourt(ctx, req.CourtID); err != nil {
		return Reservation{}, err
	}

	reservation := Reservation{
		CourtID:   req.CourtID,
		UserID:    req.RequesterID,
		Start:     start,
		End:       end,
		Status:    StatusBooked,
		CreatedAt: now,
	}
	conflict := &ConflictError{CourtID: req.CourtID, Start: start, End: end}

	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		overlapping, err := tx.Queries.ListBookedReservationsOverlapping(ctx, dbgen.ListBookedReservationsOverlappingParams{
			CourtID:   req.CourtID,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return storeError("check overlap", err)
		}
		if len(overlapping) > 0 {
			return conflict
		}

		id, err := tx.Queries.CreateReservation(ctx, dbgen.CreateReservationParams{
			CourtID:   req.CourtID,
			UserID:    req.RequesterID,
			StartTime: start,
			EndTime:   end,
			CreatedAt: now,
		})
		if err != nil {
			return storeError("create reservation", err)
		}
		reservation.ID = id

		for _, unit := range s.grid.Units(start, end) {
			if err := tx.Queries.AddReservationSlot(ctx, dbgen.AddReservationSlotParams{
				CourtID:       req.CourtID,
				SlotStart:     unit.Unix(),
				ReservationID: id,
			}); err != nil {
				if appdb.IsUniqueViolation(err) {
					return conflict
				}
				return storeError("claim slot", err)
			}
		}
		return nil
	})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return Reservation{}, conflict
		}
		logEvent := logger.Warn()
		if KindOf(err) == KindInternal || KindOf(err) == KindStoreUnavailable {
			logEvent = logger.Error()
		}
		logEvent.Err(err).
			Int64("court_id", req.CourtID).
			Int64("user_id", req.RequesterID).
			Time("start", start).
			Msg("Reservation rejected")
		return Reservation{}, err
	}

	logger.Info().
		Int64("reservation_id", reservation.ID).
		Int64("court_id", reservation.CourtID).
		Int64("user_id", reservation.UserID).
		Time("start", reservation.Start).
		Time("end", reservation.End).
		Msg("Reservation booked")

	s.notify(ctx, "reservation_confirmed", reservation, Notifier.ReservationConfirmed)
	return reservation, nil
}
