package queue

import (
	"context"
	"time"

	"github.com/codr1/CampusCourts/internal/booking"
)

// ReservationEvent is the message body for every routing key.
type ReservationEvent struct {
	Event         string     `json:"event"`
	ReservationID int64      `json:"reservation_id"`
	CourtID       int64      `json:"court_id"`
	CourtName     string     `json:"court_name"`
	Sport         string     `json:"sport"`
	UserID        int64      `json:"user_id"`
	StartUTC      time.Time  `json:"start_utc"`
	EndUTC        time.Time  `json:"end_utc"`
	Status        string     `json:"status"`
	CancelledBy   *int64     `json:"cancelled_by,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// Notifier publishes reservation notices as ReservationEvents.
type Notifier struct {
	publisher *Publisher
}

func NewNotifier(publisher *Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

func (n *Notifier) ReservationConfirmed(ctx context.Context, notice booking.Notice) error {
	return n.publish(ctx, RoutingKeyConfirmed, notice)
}

func (n *Notifier) ReservationCancelled(ctx context.Context, notice booking.Notice) error {
	return n.publish(ctx, RoutingKeyCancelled, notice)
}

func (n *Notifier) ReservationReminder(ctx context.Context, notice booking.Notice) error {
	return n.publish(ctx, RoutingKeyReminder, notice)
}

func (n *Notifier) publish(ctx context.Context, key string, notice booking.Notice) error {
	if n == nil || n.publisher == nil {
		return nil
	}
	return n.publisher.PublishJSON(ctx, key, eventFromNotice(key, notice))
}

func eventFromNotice(key string, notice booking.Notice) ReservationEvent {
	reservation := notice.Reservation
	return ReservationEvent{
		Event:         key,
		ReservationID: reservation.ID,
		CourtID:       reservation.CourtID,
		CourtName:     notice.Court.Name,
		Sport:         notice.Court.Sport,
		UserID:        reservation.UserID,
		StartUTC:      reservation.Start.UTC(),
		EndUTC:        reservation.End.UTC(),
		Status:        reservation.Status,
		CancelledBy:   reservation.CancelledBy,
		CancelledAt:   reservation.CancelledAt,
	}
}
