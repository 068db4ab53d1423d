package availability

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/codr1/CampusCourts/internal/api/authz"
	"github.com/codr1/CampusCourts/internal/booking"
	"github.com/codr1/CampusCourts/internal/testutil"
	"github.com/codr1/CampusCourts/internal/timegrid"
)

type availabilityFixture struct {
	svc    *booking.Service
	tennis int64
	hoops  int64
}

func setupAvailabilityTest(t *testing.T) availabilityFixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	fx := availabilityFixture{
		tennis: testutil.SeedCourt(t, database, "TENNIS", "Court 1", "North Gym"),
		hoops:  testutil.SeedCourt(t, database, "BASKETBALL", "Main Hoop", "Rec Center"),
	}
	testutil.SeedUser(t, database, 1, "Ada", "S-1", "")

	grid, err := timegrid.New(8, 22, 30*time.Minute, time.UTC)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	fx.svc = booking.NewService(database, booking.Options{
		Grid:               grid,
		AllowedDurations:   []int{30, 60, 90, 120},
		DefaultSlotMinutes: 60,
		PastGuard:          time.Minute,
		Now:                testutil.FixedClock(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)),
	})

	service = nil
	serviceOnce = sync.Once{}
	InitHandlers(fx.svc)

	t.Cleanup(func() {
		fx.svc.WaitForNotifications()
		service = nil
		serviceOnce = sync.Once{}
	})

	return fx
}

func getAvailability(query string, user *authz.AuthUser) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability"+query, nil)
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	recorder := httptest.NewRecorder()
	HandleAvailability(recorder, req)
	return recorder
}

func TestHandleAvailability(t *testing.T) {
	fx := setupAvailabilityTest(t)

	if _, err := fx.svc.Reserve(context.Background(), booking.ReserveRequest{
		CourtID:         fx.tennis,
		Start:           time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		RequesterID:     1,
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	recorder := getAvailability("?date=2026-03-10&court_id="+strconv.FormatInt(fx.tennis, 10), &authz.AuthUser{ID: 1, Role: authz.RoleStudent})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}

	var result booking.Availability
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if result.SlotMinutes != 60 || len(result.Courts) != 1 {
		t.Fatalf("unexpected availability %+v", result)
	}
	court := result.Courts[0]
	if len(court.FreeSlots) != 13 || len(court.BookedSlots) != 1 {
		t.Fatalf("expected 13 free and 1 booked, got %d and %d", len(court.FreeSlots), len(court.BookedSlots))
	}
	booked := court.BookedSlots[0]
	if booked.Hour != 9 || !booked.ByMe || booked.Status != booking.StatusBooked {
		t.Fatalf("unexpected booked slot %+v", booked)
	}
	if booked.Requester != nil {
		t.Fatalf("students should not see requester details")
	}

	anonymous := getAvailability("?date=2026-03-10&sport=TENNIS", nil)
	if err := json.Unmarshal(anonymous.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if result.Courts[0].BookedSlots[0].ByMe {
		t.Fatalf("anonymous viewer cannot own a booking")
	}
}

func TestHandleAvailabilitySlotMinutes(t *testing.T) {
	fx := setupAvailabilityTest(t)

	recorder := getAvailability("?date=2026-03-10&slot_minutes=30&court_id="+strconv.FormatInt(fx.hoops, 10), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var result booking.Availability
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	if len(result.Courts[0].FreeSlots) != 28 {
		t.Fatalf("expected 28 half-hour slots, got %d", len(result.Courts[0].FreeSlots))
	}
}

func TestHandleAvailabilityRejects(t *testing.T) {
	setupAvailabilityTest(t)

	cases := []struct {
		name   string
		query  string
		status int
	}{
		{name: "missing date", query: "", status: http.StatusBadRequest},
		{name: "bad date", query: "?date=10/03/2026", status: http.StatusBadRequest},
		{name: "bad sport", query: "?date=2026-03-10&sport=polo", status: http.StatusBadRequest},
		{name: "bad court list", query: "?date=2026-03-10&court_id=1,x", status: http.StatusBadRequest},
		{name: "bad slot size", query: "?date=2026-03-10&slot_minutes=45", status: http.StatusBadRequest},
		{name: "negative slot size", query: "?date=2026-03-10&slot_minutes=-30", status: http.StatusBadRequest},
		{name: "no matching court", query: "?date=2026-03-10&court_id=9999", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if recorder := getAvailability(tc.query, nil); recorder.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, recorder.Code, recorder.Body.String())
			}
		})
	}
}
