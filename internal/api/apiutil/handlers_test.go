package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/mattn/go-sqlite3"

	"github.com/codr1/CampusCourts/internal/api/authz"
	"github.com/codr1/CampusCourts/internal/booking"
)

func TestWriteErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
		field  string
	}{
		{name: "validation", err: &booking.ValidationError{Field: "start_utc", Reason: "is in the past"}, status: http.StatusBadRequest, kind: "validation", field: "start_utc"},
		{name: "field error", err: FieldError{Field: "court_id", Reason: "is required"}, status: http.StatusBadRequest, kind: "validation", field: "court_id"},
		{name: "conflict", err: &booking.ConflictError{CourtID: 1, Start: time.Unix(0, 0), End: time.Unix(3600, 0)}, status: http.StatusConflict, kind: "conflict"},
		{name: "not found", err: fmt.Errorf("court 9: %w", booking.ErrNotFound), status: http.StatusNotFound, kind: "not_found"},
		{name: "forbidden", err: booking.ErrForbidden, status: http.StatusForbidden, kind: "forbidden"},
		{name: "unauthenticated", err: authz.ErrUnauthenticated, status: http.StatusUnauthorized, kind: "unauthenticated"},
		{name: "store unavailable", err: fmt.Errorf("begin: %w", booking.ErrStoreUnavailable), status: http.StatusServiceUnavailable, kind: "store_unavailable"},
		{name: "locked at begin", err: fmt.Errorf("error beginning transaction: %w", sqlite.Error{Code: sqlite.ErrBusy}), status: http.StatusServiceUnavailable, kind: "store_unavailable"},
		{name: "handler error", err: HandlerError{Status: http.StatusTooManyRequests, Message: "slow down"}, status: http.StatusTooManyRequests, kind: "rate_limited"},
		{name: "internal", err: errors.New("disk on fire"), status: http.StatusInternalServerError, kind: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Kind != tc.kind || resp.Field != tc.field {
				t.Fatalf("unexpected body %+v", resp)
			}
			if tc.kind == "internal" && resp.Error != "internal server error" {
				t.Fatalf("internal detail leaked: %q", resp.Error)
			}
		})
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2026-03-10T09:00:00-05:00", "from")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %s want %s", got, want)
	}

	if _, err := ParseInstant("yesterday", "from"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("1, 2,3", "court_id")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ids) != 3 || ids[2] != 3 {
		t.Fatalf("unexpected ids %v", ids)
	}
	var fieldErr FieldError
	if _, err := ParseIDList("1,x", "court_id"); !errors.As(err, &fieldErr) || fieldErr.Field != "court_id" {
		t.Fatalf("expected field error, got %v", err)
	}
}
