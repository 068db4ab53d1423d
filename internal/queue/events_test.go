package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/codr1/CampusCourts/internal/booking"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (f *fakeChannel) IsClosed() bool {
	return f.closed
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: "campus.reservations",
		now:      func() time.Time { return time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC) },
	}
}

func testNotice() booking.Notice {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return booking.Notice{
		Reservation: booking.Reservation{
			ID:      7,
			CourtID: 3,
			UserID:  1,
			Start:   start,
			End:     start.Add(time.Hour),
			Status:  booking.StatusBooked,
		},
		Court:  booking.Court{ID: 3, Name: "Court 1", Sport: "TENNIS"},
		UserID: 1,
	}
}

func TestNotifierPublishesRoutingKeys(t *testing.T) {
	ch := &fakeChannel{}
	notifier := NewNotifier(newTestPublisher(ch))
	ctx := context.Background()

	if err := notifier.ReservationConfirmed(ctx, testNotice()); err != nil {
		t.Fatalf("confirmed: %v", err)
	}
	if err := notifier.ReservationReminder(ctx, testNotice()); err != nil {
		t.Fatalf("reminder: %v", err)
	}
	cancelled := testNotice()
	staffID := int64(9)
	cancelledAt := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	cancelled.Reservation.Status = booking.StatusCancelled
	cancelled.Reservation.CancelledBy = &staffID
	cancelled.Reservation.CancelledAt = &cancelledAt
	if err := notifier.ReservationCancelled(ctx, cancelled); err != nil {
		t.Fatalf("cancelled: %v", err)
	}

	wantKeys := []string{RoutingKeyConfirmed, RoutingKeyReminder, RoutingKeyCancelled}
	if len(ch.published) != len(wantKeys) {
		t.Fatalf("expected %d messages, got %d", len(wantKeys), len(ch.published))
	}
	for i, want := range wantKeys {
		got := ch.published[i]
		if got.key != want || got.exchange != "campus.reservations" {
			t.Fatalf("message %d: got %s/%s", i, got.exchange, got.key)
		}
		if got.msg.ContentType != "application/json" || got.msg.DeliveryMode != amqp.Persistent {
			t.Fatalf("message %d: unexpected publishing %+v", i, got.msg)
		}
	}

	var event ReservationEvent
	if err := json.Unmarshal(ch.published[2].msg.Body, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Event != RoutingKeyCancelled || event.ReservationID != 7 || event.Status != booking.StatusCancelled {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.CancelledBy == nil || *event.CancelledBy != 9 {
		t.Fatalf("expected cancelled_by 9, got %v", event.CancelledBy)
	}
	if event.CourtName != "Court 1" || !event.StartUTC.Equal(testNotice().Reservation.Start) {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestPublishJSONWrapsErrors(t *testing.T) {
	boom := errors.New("channel closed")
	publisher := newTestPublisher(&fakeChannel{err: boom})

	err := publisher.PublishJSON(context.Background(), RoutingKeyConfirmed, map[string]int{"id": 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
	if err := publisher.PublishJSON(context.Background(), RoutingKeyConfirmed, func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	var notifier *Notifier
	if err := notifier.ReservationConfirmed(context.Background(), testNotice()); err != nil {
		t.Fatalf("expected nil notifier to be a no-op, got %v", err)
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	if err := newTestPublisher(ch).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.closed {
		t.Fatalf("expected channel to be closed")
	}
}

type fakeConn struct {
	closed bool
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// redialingPublisher starts on first and hands out fresh channels from dial.
func redialingPublisher(first *fakeChannel, clock *time.Time) (*Publisher, *[]*fakeChannel) {
	dialed := &[]*fakeChannel{}
	p := &Publisher{
		ch:       first,
		conn:     &fakeConn{},
		exchange: "campus.reservations",
		now:      func() time.Time { return *clock },
		lastDial: *clock,
		dial: func() (channel, io.Closer, error) {
			ch := &fakeChannel{}
			*dialed = append(*dialed, ch)
			return ch, &fakeConn{}, nil
		},
	}
	return p, dialed
}

func TestPublishRedialsClosedChannel(t *testing.T) {
	clock := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	first := &fakeChannel{closed: true}
	publisher, dialed := redialingPublisher(first, &clock)
	clock = clock.Add(time.Minute)

	if err := publisher.PublishJSON(context.Background(), RoutingKeyConfirmed, map[string]int{"id": 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(*dialed) != 1 {
		t.Fatalf("expected one redial, got %d", len(*dialed))
	}
	if len((*dialed)[0].published) != 1 || len(first.published) != 0 {
		t.Fatalf("expected the message on the new channel")
	}
}

func TestPublishRetriesAfterBrokerClose(t *testing.T) {
	clock := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	first := &fakeChannel{err: amqp.ErrClosed}
	publisher, dialed := redialingPublisher(first, &clock)
	clock = clock.Add(time.Minute)

	if err := publisher.PublishJSON(context.Background(), RoutingKeyCancelled, map[string]int{"id": 2}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !first.closed {
		t.Fatalf("expected the dead channel to be released")
	}
	if len(*dialed) != 1 || len((*dialed)[0].published) != 1 {
		t.Fatalf("expected the retry to publish on a fresh channel")
	}
}

func TestPublishRedialBackoff(t *testing.T) {
	clock := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	publisher, dialed := redialingPublisher(&fakeChannel{closed: true}, &clock)

	err := publisher.PublishJSON(context.Background(), RoutingKeyReminder, map[string]int{"id": 3})
	if !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected closed error inside the backoff, got %v", err)
	}
	if len(*dialed) != 0 {
		t.Fatalf("expected no redial inside the backoff, got %d", len(*dialed))
	}

	clock = clock.Add(redialInterval)
	if err := publisher.PublishJSON(context.Background(), RoutingKeyReminder, map[string]int{"id": 3}); err != nil {
		t.Fatalf("publish after backoff: %v", err)
	}
	if len(*dialed) != 1 {
		t.Fatalf("expected one redial after the backoff, got %d", len(*dialed))
	}
}

func TestClosedPublisherDoesNotRedial(t *testing.T) {
	clock := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	publisher, dialed := redialingPublisher(&fakeChannel{}, &clock)
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	clock = clock.Add(time.Hour)

	err := publisher.PublishJSON(context.Background(), RoutingKeyConfirmed, map[string]int{"id": 4})
	if !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if len(*dialed) != 0 {
		t.Fatalf("closed publisher must not redial")
	}
}
