package booking

import (
	"context"
	"errors"
	"time"
)

// Notice is what the engine hands to notification collaborators after a
// state change has been committed.
type Notice struct {
	Reservation Reservation
	Court       Court
	UserID      int64
	DisplayName string
	Email       string
	// LocalStart and LocalEnd are the reservation bounds in the venue time zone.
	LocalStart time.Time
	LocalEnd   time.Time
}

// Notifier delivers reservation notices. Implementations must be safe for
// concurrent use; errors are logged by the caller and never undo a booking.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, notice Notice) error
	ReservationCancelled(ctx context.Context, notice Notice) error
	ReservationReminder(ctx context.Context, notice Notice) error
}

// NopNotifier drops every notice.
type NopNotifier struct{}

func (NopNotifier) ReservationConfirmed(context.Context, Notice) error { return nil }
func (NopNotifier) ReservationCancelled(context.Context, Notice) error { return nil }
func (NopNotifier) ReservationReminder(context.Context, Notice) error  { return nil }

// MultiNotifier fans a notice out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) ReservationConfirmed(ctx context.Context, notice Notice) error {
	return m.each(func(n Notifier) error { return n.ReservationConfirmed(ctx, notice) })
}

func (m MultiNotifier) ReservationCancelled(ctx context.Context, notice Notice) error {
	return m.each(func(n Notifier) error { return n.ReservationCancelled(ctx, notice) })
}

func (m MultiNotifier) ReservationReminder(ctx context.Context, notice Notice) error {
	return m.each(func(n Notifier) error { return n.ReservationReminder(ctx, notice) })
}

func (m MultiNotifier) each(send func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := send(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
