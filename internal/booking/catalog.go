package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/config"
	appdb "github.com/codr1/CampusCourts/internal/db"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

var sports = []string{"BASKETBALL", "TENNIS", "FOOTBALL"}

type Court struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Sport    string `json:"sport"`
	Location string `json:"location"`
}

type Reservation struct {
	ID          int64      `json:"id"`
	CourtID     int64      `json:"court_id"`
	UserID      int64      `json:"user_id"`
	Start       time.Time  `json:"start_utc"`
	End         time.Time  `json:"end_utc"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy *int64     `json:"cancelled_by,omitempty"`
}

// DurationMinutes is the reserved span in whole minutes.
func (r Reservation) DurationMinutes() int {
	return int(r.End.Sub(r.Start) / time.Minute)
}

func courtFromRow(row dbgen.Court) Court {
	return Court{
		ID:       row.ID,
		Name:     row.Name,
		Sport:    row.Sport,
		Location: row.Location,
	}
}

func reservationFromRow(row dbgen.Reservation) Reservation {
	reservation := Reservation{
		ID:        row.ID,
		CourtID:   row.CourtID,
		UserID:    row.UserID,
		Start:     row.StartTime.UTC(),
		End:       row.EndTime.UTC(),
		Status:    row.Status,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.CancelledAt.Valid {
		cancelledAt := row.CancelledAt.Time.UTC()
		reservation.CancelledAt = &cancelledAt
	}
	if row.CancelledByUserID.Valid {
		cancelledBy := row.CancelledByUserID.Int64
		reservation.CancelledBy = &cancelledBy
	}
	return reservation
}

// ParseSport normalizes a sport filter. An empty value means any sport.
func ParseSport(raw string) (string, error) {
	sport := strings.ToUpper(strings.TrimSpace(raw))
	if sport == "" {
		return "", nil
	}
	for _, known := range sports {
		if sport == known {
			return sport, nil
		}
	}
	return "", invalid("sport", "must be one of "+strings.Join(sports, ", "))
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

// ListCourts returns the catalog, optionally restricted to one sport.
func (s *Service) ListCourts(ctx context.Context, sport string) ([]Court, error) {
	sport, err := ParseSport(sport)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Queries.ListCourts(ctx, nullString(sport))
	if err != nil {
		return nil, storeError("list courts", err)
	}
	courts := make([]Court, 0, len(rows))
	for _, row := range rows {
		courts = append(courts, courtFromRow(row))
	}
	return courts, nil
}

// GetCourt loads a single court.
func (s *Service) GetCourt(ctx context.Context, id int64) (Court, error) {
	row, err := s.db.Queries.GetCourt(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, fmt.Errorf("court %d: %w", id, ErrNotFound)
		}
		return Court{}, storeError("load court", err)
	}
	return courtFromRow(row), nil
}

// SyncCatalog upserts the configured courts by (sport, name). Courts missing
// from seeds are left alone so their reservation history stays intact.
func (s *Service) SyncCatalog(ctx context.Context, seeds []config.CourtSeed) error {
	logger := log.Ctx(ctx)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		for _, seed := range seeds {
			sport, err := ParseSport(seed.Sport)
			if err != nil || sport == "" {
				return fmt.Errorf("court %q: %w", seed.Name, invalid("sport", "is not a supported sport"))
			}
			if err := tx.Queries.UpsertCourt(ctx, dbgen.UpsertCourtParams{
				Name:     strings.TrimSpace(seed.Name),
				Sport:    sport,
				Location: strings.TrimSpace(seed.Location),
			}); err != nil {
				return storeError("upsert court", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info().Int("courts", len(seeds)).Msg("Court catalog synchronized")
	return nil
}
