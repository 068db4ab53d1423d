package booking

import (
	"context"
	"errors"
	"testing"
)

func TestAvailabilityPartitionsEverySlot(t *testing.T) {
	f := newFixture(t, at(7, 0))
	f.reserve(t, f.tennis, at(9, 0), 90, 1)
	f.reserve(t, f.tennis, at(13, 0), 60, 2)

	availability, err := f.svc.Availability(context.Background(), AvailabilityQuery{
		Sport:  "tennis",
		Date:   "2026-03-10",
		Viewer: student1,
	})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(availability.Courts) != 2 {
		t.Fatalf("expected 2 tennis courts, got %d", len(availability.Courts))
	}
	if availability.SlotMinutes != 60 {
		t.Fatalf("expected default 60-minute slots, got %d", availability.SlotMinutes)
	}

	for _, court := range availability.Courts {
		seen := make(map[int64]bool)
		for _, slot := range court.FreeSlots {
			seen[slot.StartUTC.Unix()] = true
		}
		for _, slot := range court.BookedSlots {
			if seen[slot.SlotStartUTC.Unix()] {
				t.Fatalf("court %d: slot %s is both free and booked", court.Court.ID, slot.Label)
			}
			seen[slot.SlotStartUTC.Unix()] = true
		}
		if len(seen) != 14 {
			t.Fatalf("court %d: expected 14 classified slots, got %d", court.Court.ID, len(seen))
		}
	}

	court := availability.Courts[0]
	if court.Court.ID != f.tennis {
		t.Fatalf("expected courts ordered by name, got %+v", court.Court)
	}
	// 09:00-10:30 covers the 09:00 and 10:00 slots; 13:00-14:00 covers one.
	if len(court.BookedSlots) != 3 {
		t.Fatalf("expected 3 booked slots, got %d", len(court.BookedSlots))
	}
	first := court.BookedSlots[0]
	if first.Hour != 9 || first.Label != "09:00" || !first.ByMe {
		t.Fatalf("unexpected first booked slot %+v", first)
	}
	if !first.StartUTC.Equal(at(9, 0)) || !first.EndUTC.Equal(at(10, 30)) {
		t.Fatalf("booked slot should report the reservation bounds, got %s-%s", first.StartUTC, first.EndUTC)
	}
	if court.BookedSlots[2].ByMe {
		t.Fatalf("13:00 slot belongs to another user")
	}
	if first.Requester != nil {
		t.Fatalf("students must not see requester details")
	}
}

func TestAvailabilityOmitsPastFreeSlots(t *testing.T) {
	f := newFixture(t, at(12, 10))
	f.setNow(at(7, 0))
	f.reserve(t, f.tennis, at(9, 0), 60, 1)
	f.setNow(at(12, 10))

	availability, err := f.svc.Availability(context.Background(), AvailabilityQuery{
		CourtIDs: []int64{f.tennis},
		Date:     "2026-03-10",
		Viewer:   student1,
	})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	court := availability.Courts[0]
	if len(court.BookedSlots) != 1 {
		t.Fatalf("past booked slots stay visible, got %d", len(court.BookedSlots))
	}
	// 13:00 through 21:00 remain free.
	if len(court.FreeSlots) != 9 {
		t.Fatalf("expected 9 future free slots, got %d", len(court.FreeSlots))
	}
	if court.FreeSlots[0].Label != "13:00" {
		t.Fatalf("expected first free slot at 13:00, got %s", court.FreeSlots[0].Label)
	}
}

func TestAvailabilityStaffSeesRequester(t *testing.T) {
	f := newFixture(t, at(7, 0))
	f.reserve(t, f.hoops, at(18, 0), 60, 2)

	availability, err := f.svc.Availability(context.Background(), AvailabilityQuery{
		Sport:  "BASKETBALL",
		Date:   "2026-03-10",
		Viewer: staff,
	})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	booked := availability.Courts[0].BookedSlots
	if len(booked) != 1 {
		t.Fatalf("expected 1 booked slot, got %d", len(booked))
	}
	if booked[0].ByMe {
		t.Fatalf("by_me must be computed against the viewer")
	}
	if booked[0].Requester == nil || booked[0].Requester.DisplayName != "Ben Student" || booked[0].Requester.CampusID != "S-0002" {
		t.Fatalf("unexpected requester %+v", booked[0].Requester)
	}
}

func TestAvailabilityAnonymousViewer(t *testing.T) {
	f := newFixture(t, at(7, 0))
	f.reserve(t, f.tennis, at(9, 0), 60, 1)

	availability, err := f.svc.Availability(context.Background(), AvailabilityQuery{
		CourtIDs: []int64{f.tennis},
		Date:     "2026-03-10",
	})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if availability.Courts[0].BookedSlots[0].ByMe {
		t.Fatalf("anonymous viewers never own a slot")
	}
}

func TestAvailabilityErrors(t *testing.T) {
	f := newFixture(t, at(7, 0))

	cases := []struct {
		name  string
		query AvailabilityQuery
		want  error
		field string
	}{
		{name: "bad date", query: AvailabilityQuery{Date: "10/03/2026"}, want: ErrValidation, field: "date"},
		{name: "missing date", query: AvailabilityQuery{}, want: ErrValidation, field: "date"},
		{name: "bad sport", query: AvailabilityQuery{Date: "2026-03-10", Sport: "curling"}, want: ErrValidation, field: "sport"},
		{name: "bad slot size", query: AvailabilityQuery{Date: "2026-03-10", SlotMinutes: 45}, want: ErrValidation, field: "slot_minutes"},
		{name: "no courts for sport", query: AvailabilityQuery{Date: "2026-03-10", Sport: "football"}, want: ErrNotFound},
		{name: "unknown court", query: AvailabilityQuery{Date: "2026-03-10", CourtIDs: []int64{9999}}, want: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Availability(context.Background(), tc.query)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.field != "" {
				requireField(t, err, tc.field)
			}
		})
	}
}
