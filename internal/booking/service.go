// Package booking is the court reservation engine: catalog reads,
// availability, reserve, cancel, and reporting over the reservation store.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/config"
	appdb "github.com/codr1/CampusCourts/internal/db"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
	"github.com/codr1/CampusCourts/internal/timegrid"
)

const (
	StatusBooked    = "BOOKED"
	StatusCancelled = "CANCELLED"

	notifyTimeout = 30 * time.Second
)

type Options struct {
	Grid               timegrid.Grid
	AllowedDurations   []int
	DefaultSlotMinutes int
	PastGuard          time.Duration
	Notifier           Notifier
	Now                func() time.Time
}

type Service struct {
	db          *appdb.DB
	grid        timegrid.Grid
	durations   []int
	defaultSlot int
	pastGuard   time.Duration
	notifier    Notifier
	now         func() time.Time
	pending     sync.WaitGroup
}

func NewService(database *appdb.DB, opts Options) *Service {
	durations := append([]int(nil), opts.AllowedDurations...)
	sort.Ints(durations)
	if len(durations) == 0 {
		durations = []int{30, 60, 90, 120}
	}
	defaultSlot := opts.DefaultSlotMinutes
	if defaultSlot <= 0 {
		defaultSlot = 60
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:          database,
		grid:        opts.Grid,
		durations:   durations,
		defaultSlot: defaultSlot,
		pastGuard:   opts.PastGuard,
		notifier:    notifier,
		now:         now,
	}
}

// NewServiceFromConfig builds a Service from the booking section of cfg.
func NewServiceFromConfig(database *appdb.DB, cfg *config.Config, notifier Notifier) (*Service, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return nil, fmt.Errorf("build time grid: %w", err)
	}
	return NewService(database, Options{
		Grid:               grid,
		AllowedDurations:   cfg.Booking.AllowedDurations,
		DefaultSlotMinutes: cfg.Booking.DefaultSlotMinutes,
		PastGuard:          time.Duration(cfg.Booking.PastGuardSeconds) * time.Second,
		Notifier:           notifier,
	}), nil
}

// Grid returns the venue time grid.
func (s *Service) Grid() timegrid.Grid {
	return s.grid
}

// AllowedDurations returns the bookable durations in minutes, ascending.
func (s *Service) AllowedDurations() []int {
	return append([]int(nil), s.durations...)
}

// WaitForNotifications blocks until every in-flight notice has been handed off.
func (s *Service) WaitForNotifications() {
	s.pending.Wait()
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Service) durationAllowed(minutes int) bool {
	for _, allowed := range s.durations {
		if allowed == minutes {
			return true
		}
	}
	return false
}

func (s *Service) durationList() string {
	parts := make([]string, len(s.durations))
	for i, minutes := range s.durations {
		parts[i] = strconv.Itoa(minutes)
	}
	return strings.Join(parts, ", ")
}

func (s *Service) windowLabel() string {
	open, close := s.grid.OperatingWindow()
	return fmt.Sprintf("%02d:00-%02d:00", open, close)
}

// notify hands a notice to the notifier on its own goroutine, detached from
// the request so a client disconnect does not drop it.
func (s *Service) notify(ctx context.Context, event string, reservation Reservation, send func(Notifier, context.Context, Notice) error) {
	logger := log.Ctx(ctx).With().
		Str("event", event).
		Int64("reservation_id", reservation.ID).
		Int64("court_id", reservation.CourtID).
		Int64("user_id", reservation.UserID).
		Logger()
	detached := context.WithoutCancel(logger.WithContext(ctx))

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		notifyCtx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()

		notice, err := s.buildNotice(notifyCtx, reservation)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build reservation notice")
			return
		}
		if err := send(s.notifier, notifyCtx, notice); err != nil {
			logger.Error().Err(err).Msg("Failed to deliver reservation notice")
			return
		}
		logger.Debug().Msg("Reservation notice delivered")
	}()
}

func (s *Service) buildNotice(ctx context.Context, reservation Reservation) (Notice, error) {
	court, err := s.db.Queries.GetCourt(ctx, reservation.CourtID)
	if err != nil {
		return Notice{}, fmt.Errorf("load court: %w", err)
	}
	notice := Notice{
		Reservation: reservation,
		Court:       courtFromRow(court),
		UserID:      reservation.UserID,
		LocalStart:  s.grid.In(reservation.Start),
		LocalEnd:    s.grid.In(reservation.End),
	}
	user, err := s.db.Queries.GetUserByID(ctx, reservation.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Notice{}, fmt.Errorf("load user: %w", err)
	default:
		notice.DisplayName = user.DisplayName
		if user.Email.Valid {
			notice.Email = user.Email.String
		}
	}
	return notice, nil
}

// SendReminders hands a reminder notice for every BOOKED reservation starting
// within [now+lead, now+lead+window) to the notifier and returns how many were
// delivered.
func (s *Service) SendReminders(ctx context.Context, lead, window time.Duration) (int, error) {
	logger := log.Ctx(ctx)
	windowStart := s.clock().Add(lead)
	rows, err := s.db.Queries.ListReservationsStartingBetween(ctx, dbgen.ListReservationsStartingBetweenParams{
		WindowStart: windowStart,
		WindowEnd:   windowStart.Add(window),
	})
	if err != nil {
		return 0, storeError("list upcoming reservations", err)
	}

	sent := 0
	for _, row := range rows {
		reservation := reservationFromRow(row)
		notice, err := s.buildNotice(ctx, reservation)
		if err != nil {
			logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to build reminder notice")
			continue
		}
		if err := s.notifier.ReservationReminder(ctx, notice); err != nil {
			logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to deliver reminder notice")
			continue
		}
		sent++
	}
	return sent, nil
}
