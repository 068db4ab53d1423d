package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/CampusCourts/internal/booking"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
	ctxErr    error
	deadline  bool
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	f.sent = append(f.sent, sentEmail{
		recipient: recipient,
		subject:   subject,
		body:      body,
		ctxErr:    ctx.Err(),
		deadline:  hasDeadline,
	})
	return f.err
}

func (f *fakeEmailSender) emails() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail(nil), f.sent...)
}

func testNotice(email string) booking.Notice {
	loc := time.FixedZone("EST", -5*60*60)
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return booking.Notice{
		Reservation: booking.Reservation{
			ID:      7,
			CourtID: 3,
			UserID:  1,
			Start:   start,
			End:     start.Add(90 * time.Minute),
			Status:  booking.StatusBooked,
		},
		Court:       booking.Court{ID: 3, Name: "Court 1", Sport: "TENNIS", Location: "North Gym"},
		UserID:      1,
		DisplayName: "Ada",
		Email:       email,
		LocalStart:  start.In(loc),
		LocalEnd:    start.Add(90 * time.Minute).In(loc),
	}
}

func TestNotifierSendsConfirmation(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "State U Rec")

	if err := notifier.ReservationConfirmed(context.Background(), testNotice("ada@campus.edu")); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	sent := sender.emails()
	if len(sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sent))
	}
	got := sent[0]
	if got.recipient != "ada@campus.edu" {
		t.Fatalf("unexpected recipient %q", got.recipient)
	}
	if got.subject != "Court Reservation Confirmed - State U Rec" {
		t.Fatalf("unexpected subject %q", got.subject)
	}
	for _, want := range []string{"Hi Ada,", "Sport: Tennis", "Court: Court 1", "Location: North Gym", "Date: Tuesday, Mar 10, 2026", "Time: 9:00 AM - 10:30 AM EST"} {
		if !strings.Contains(got.body, want) {
			t.Fatalf("body missing %q:\n%s", want, got.body)
		}
	}
	if !got.deadline {
		t.Fatalf("expected send context to carry a deadline")
	}
}

func TestNotifierSkipsMissingAddress(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "")

	if err := notifier.ReservationReminder(context.Background(), testNotice("  ")); err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if len(sender.emails()) != 0 {
		t.Fatalf("expected no email without an address")
	}
}

func TestNotifierCancellationByStaff(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "")

	self := testNotice("ada@campus.edu")
	ownerID := int64(1)
	self.Reservation.Status = booking.StatusCancelled
	self.Reservation.CancelledBy = &ownerID
	if err := notifier.ReservationCancelled(context.Background(), self); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	staff := testNotice("ada@campus.edu")
	staffID := int64(9)
	staff.Reservation.Status = booking.StatusCancelled
	staff.Reservation.CancelledBy = &staffID
	if err := notifier.ReservationCancelled(context.Background(), staff); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	sent := sender.emails()
	if len(sent) != 2 {
		t.Fatalf("expected two emails, got %d", len(sent))
	}
	if strings.Contains(sent[0].body, "campus recreation staff") {
		t.Fatalf("self cancellation should not mention staff")
	}
	if !strings.Contains(sent[1].body, "cancelled by campus recreation staff") {
		t.Fatalf("staff cancellation should say so:\n%s", sent[1].body)
	}
	if !strings.HasSuffix(sent[0].subject, "- Campus Recreation") {
		t.Fatalf("expected default venue name, got %q", sent[0].subject)
	}
}

func TestNotifierDetachesFromCallerCancellation(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.ReservationConfirmed(ctx, testNotice("ada@campus.edu")); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := sender.emails()[0].ctxErr; err != nil {
		t.Fatalf("send context should not inherit cancellation, got %v", err)
	}
}

func TestNotifierReturnsSendError(t *testing.T) {
	boom := errors.New("ses throttled")
	notifier := NewNotifier(&fakeEmailSender{err: boom}, "")

	if err := notifier.ReservationReminder(context.Background(), testNotice("ada@campus.edu")); !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestSportLabel(t *testing.T) {
	cases := map[string]string{
		"TENNIS":     "Tennis",
		"basketball": "Basketball",
		"":           "Court",
	}
	for in, want := range cases {
		if got := SportLabel(in); got != want {
			t.Fatalf("SportLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
