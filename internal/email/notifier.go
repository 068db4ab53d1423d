package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/booking"
)

const sendTimeout = 5 * time.Second

// Notifier emails reservation holders. Notices without an address are
// skipped.
type Notifier struct {
	sender    EmailSender
	venueName string
}

func NewNotifier(sender EmailSender, venueName string) *Notifier {
	return &Notifier{sender: sender, venueName: venueName}
}

func (n *Notifier) ReservationConfirmed(ctx context.Context, notice booking.Notice) error {
	return n.send(ctx, notice, BuildConfirmationEmail(n.details(notice)))
}

func (n *Notifier) ReservationCancelled(ctx context.Context, notice booking.Notice) error {
	byStaff := false
	if cancelledBy := notice.Reservation.CancelledBy; cancelledBy != nil && *cancelledBy != notice.UserID {
		byStaff = true
	}
	return n.send(ctx, notice, BuildCancellationEmail(n.details(notice), byStaff))
}

func (n *Notifier) ReservationReminder(ctx context.Context, notice booking.Notice) error {
	return n.send(ctx, notice, BuildReminderEmail(n.details(notice)))
}

func (n *Notifier) details(notice booking.Notice) ReservationDetails {
	date, timeRange := FormatDateTimeRange(notice.LocalStart, notice.LocalEnd)
	return ReservationDetails{
		VenueName:   n.venueName,
		CourtName:   notice.Court.Name,
		Sport:       notice.Court.Sport,
		Location:    notice.Court.Location,
		Date:        date,
		TimeRange:   timeRange,
		DisplayName: notice.DisplayName,
	}
}

func (n *Notifier) send(ctx context.Context, notice booking.Notice, message Message) error {
	if n == nil || n.sender == nil {
		return nil
	}
	recipient := strings.TrimSpace(notice.Email)
	if recipient == "" {
		log.Ctx(ctx).Debug().Int64("user_id", notice.UserID).Msg("No email on file, skipping notice")
		return nil
	}

	sendCtx, cancel := newEmailContext(ctx, sendTimeout)
	defer cancel()
	return n.sender.Send(sendCtx, recipient, message.Subject, message.Body)
}
