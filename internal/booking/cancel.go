package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/authz"
	appdb "github.com/codr1/CampusCourts/internal/db"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

func (s *Service) loadReservation(ctx context.Context, id int64) (Reservation, error) {
	row, err := s.db.Queries.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
		}
		return Reservation{}, storeError("load reservation", err)
	}
	return reservationFromRow(row), nil
}

// Cancel moves a BOOKED reservation to CANCELLED and releases its slots.
// Cancelling an already-cancelled reservation succeeds without changes.
// Owners may cancel until the reservation starts; staff and admins may cancel
// at any time.
func (s *Service) Cancel(ctx context.Context, reservationID int64, requester *authz.AuthUser) (Reservation, error) {
	logger := log.Ctx(ctx)
	if requester == nil {
		return Reservation{}, authz.ErrUnauthenticated
	}

	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, err
	}
	if !authz.CanCancelReservation(requester, reservation.UserID) {
		logger.Warn().
			Int64("reservation_id", reservationID).
			Int64("user_id", requester.ID).
			Msg("Cancellation denied: not owner")
		return Reservation{}, fmt.Errorf("reservation %d: %w", reservationID, ErrForbidden)
	}
	if reservation.Status == StatusCancelled {
		return reservation, nil
	}

	now := s.clock()
	if !authz.IsPrivileged(requester) && !now.Before(reservation.Start) {
		return Reservation{}, invalid("", "reservation has already started")
	}

	transitioned := false
	err = s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		affected, err := tx.Queries.CancelReservation(ctx, dbgen.CancelReservationParams{
			ID:                reservationID,
			CancelledAt:       sql.NullTime{Time: now, Valid: true},
			CancelledByUserID: sql.NullInt64{Int64: requester.ID, Valid: true},
		})
		if err != nil {
			return storeError("cancel reservation", err)
		}
		if affected == 0 {
			// Lost the race to another cancellation.
			return nil
		}
		transitioned = true
		if _, err := tx.Queries.DeleteReservationSlots(ctx, reservationID); err != nil {
			return storeError("release slots", err)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to cancel reservation")
		return Reservation{}, err
	}

	if !transitioned {
		return s.loadReservation(ctx, reservationID)
	}

	reservation.Status = StatusCancelled
	reservation.CancelledAt = &now
	cancelledBy := requester.ID
	reservation.CancelledBy = &cancelledBy

	logger.Info().
		Int64("reservation_id", reservation.ID).
		Int64("court_id", reservation.CourtID).
		Int64("user_id", requester.ID).
		Bool("by_owner", requester.ID == reservation.UserID).
		Msg("Reservation cancelled")

	s.notify(ctx, "reservation_cancelled", reservation, Notifier.ReservationCancelled)
	return reservation, nil
}

// ReservationDetail is a reservation joined with its court and requester.
type ReservationDetail struct {
	Reservation
	CourtName         string `json:"court_name"`
	Sport             string `json:"sport"`
	Location          string `json:"location"`
	RequesterName     string `json:"requester_name,omitempty"`
	RequesterCampusID string `json:"requester_campus_id,omitempty"`
}

// GetReservation returns a reservation to its owner or to staff.
func (s *Service) GetReservation(ctx context.Context, reservationID int64, viewer *authz.AuthUser) (ReservationDetail, error) {
	if viewer == nil {
		return ReservationDetail{}, authz.ErrUnauthenticated
	}
	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return ReservationDetail{}, err
	}
	if !authz.CanViewReservation(viewer, reservation.UserID) {
		return ReservationDetail{}, fmt.Errorf("reservation %d: %w", reservationID, ErrForbidden)
	}
	court, err := s.GetCourt(ctx, reservation.CourtID)
	if err != nil {
		return ReservationDetail{}, err
	}
	requester, err := s.lookupRequester(ctx, map[int64]*Requester{}, reservation.UserID)
	if err != nil {
		return ReservationDetail{}, err
	}
	return ReservationDetail{
		Reservation:       reservation,
		CourtName:         court.Name,
		Sport:             court.Sport,
		Location:          court.Location,
		RequesterName:     requester.DisplayName,
		RequesterCampusID: requester.CampusID,
	}, nil
}
