package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/CampusCourts/internal/api/authz"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
	"github.com/codr1/CampusCourts/internal/timegrid"
)

type AvailabilityQuery struct {
	Sport       string
	CourtIDs    []int64
	Date        string
	SlotMinutes int
	Viewer      *authz.AuthUser
}

type FreeSlot struct {
	Hour     int       `json:"hour"`
	Label    string    `json:"label"`
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
}

type Requester struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	CampusID    string `json:"campus_id"`
}

// BookedSlot is a grid slot covered by a BOOKED reservation. StartUTC and
// EndUTC are the reservation's bounds; SlotStartUTC is the slot's own start.
type BookedSlot struct {
	Hour          int        `json:"hour"`
	Label         string     `json:"label"`
	SlotStartUTC  time.Time  `json:"slot_start_utc"`
	ReservationID int64      `json:"id"`
	StartUTC      time.Time  `json:"start_utc"`
	EndUTC        time.Time  `json:"end_utc"`
	Status        string     `json:"status"`
	ByMe          bool       `json:"by_me"`
	Requester     *Requester `json:"requester,omitempty"`
}

type CourtAvailability struct {
	Court       Court        `json:"court"`
	FreeSlots   []FreeSlot   `json:"free_slots"`
	BookedSlots []BookedSlot `json:"booked_slots"`
}

type Availability struct {
	Date        string              `json:"date"`
	SlotMinutes int                 `json:"slot_minutes"`
	Timezone    string              `json:"timezone"`
	Courts      []CourtAvailability `json:"courts"`
}

// Availability classifies every slot of the requested day for each matching
// court. Slots covered by a BOOKED reservation are booked, past slots that
// are not booked are omitted, and the rest are free. It reads committed state
// only and is never cached.
func (s *Service) Availability(ctx context.Context, query AvailabilityQuery) (Availability, error) {
	sport, err := ParseSport(query.Sport)
	if err != nil {
		return Availability{}, err
	}
	date, err := s.grid.ParseDate(query.Date)
	if err != nil {
		return Availability{}, invalid("date", err.Error())
	}
	slotMinutes := query.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = s.defaultSlot
	}
	slotSize := time.Duration(slotMinutes) * time.Minute
	slots, err := s.grid.EnumerateSlots(date, slotSize)
	if err != nil {
		return Availability{}, invalid("slot_minutes", fmt.Sprintf("must be a multiple of %d that divides the operating window", int(s.grid.Granularity.Minutes())))
	}

	courts, err := s.matchingCourts(ctx, sport, query.CourtIDs)
	if err != nil {
		return Availability{}, err
	}

	dayOpen, dayClose := s.grid.DayBounds(date)
	now := s.clock()
	viewerID := int64(0)
	if query.Viewer != nil {
		viewerID = query.Viewer.ID
	}
	privileged := authz.IsPrivileged(query.Viewer)
	requesters := make(map[int64]*Requester)

	result := Availability{
		Date:        date.Format("2006-01-02"),
		SlotMinutes: slotMinutes,
		Timezone:    s.grid.In(dayOpen).Location().String(),
		Courts:      make([]CourtAvailability, 0, len(courts)),
	}
	for _, court := range courts {
		rows, err := s.db.Queries.ListBookedReservationsOverlapping(ctx, dbgen.ListBookedReservationsOverlappingParams{
			CourtID:   court.ID,
			StartTime: dayOpen,
			EndTime:   dayClose,
		})
		if err != nil {
			return Availability{}, storeError("load reservations", err)
		}
		booked := make([]Reservation, 0, len(rows))
		for _, row := range rows {
			booked = append(booked, reservationFromRow(row))
		}

		entry := CourtAvailability{
			Court:       court,
			FreeSlots:   []FreeSlot{},
			BookedSlots: []BookedSlot{},
		}
		for _, start := range slots {
			end := start.Add(slotSize)
			hour, minute := s.grid.LocalHour(start)
			label := fmt.Sprintf("%02d:%02d", hour, minute)

			if reservation, ok := earliestOverlap(booked, start, end); ok {
				slot := BookedSlot{
					Hour:          hour,
					Label:         label,
					SlotStartUTC:  start,
					ReservationID: reservation.ID,
					StartUTC:      reservation.Start,
					EndUTC:        reservation.End,
					Status:        reservation.Status,
					ByMe:          viewerID != 0 && reservation.UserID == viewerID,
				}
				if privileged {
					requester, err := s.lookupRequester(ctx, requesters, reservation.UserID)
					if err != nil {
						return Availability{}, err
					}
					slot.Requester = requester
				}
				entry.BookedSlots = append(entry.BookedSlots, slot)
				continue
			}
			if timegrid.IsPast(start, now, s.pastGuard) {
				continue
			}
			entry.FreeSlots = append(entry.FreeSlots, FreeSlot{
				Hour:     hour,
				Label:    label,
				StartUTC: start,
				EndUTC:   end,
			})
		}
		result.Courts = append(result.Courts, entry)
	}
	return result, nil
}

// earliestOverlap returns the first reservation, by start, that overlaps
// [start, end). booked must be sorted by start.
func earliestOverlap(booked []Reservation, start, end time.Time) (Reservation, bool) {
	for _, reservation := range booked {
		if !reservation.Start.Before(end) {
			break
		}
		if timegrid.Overlaps(reservation.Start, reservation.End, start, end) {
			return reservation, true
		}
	}
	return Reservation{}, false
}

func (s *Service) matchingCourts(ctx context.Context, sport string, ids []int64) ([]Court, error) {
	rows, err := s.db.Queries.ListCourts(ctx, nullString(sport))
	if err != nil {
		return nil, storeError("list courts", err)
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var courts []Court
	for _, row := range rows {
		if len(wanted) > 0 && !wanted[row.ID] {
			continue
		}
		courts = append(courts, courtFromRow(row))
	}
	if len(courts) == 0 {
		return nil, fmt.Errorf("no courts match the requested filters: %w", ErrNotFound)
	}
	return courts, nil
}

func (s *Service) lookupRequester(ctx context.Context, cache map[int64]*Requester, userID int64) (*Requester, error) {
	if requester, ok := cache[userID]; ok {
		return requester, nil
	}
	requester := &Requester{UserID: userID}
	user, err := s.db.Queries.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, storeError("load requester", err)
	default:
		requester.DisplayName = user.DisplayName
		requester.CampusID = user.CampusID
	}
	cache[userID] = requester
	return requester, nil
}
