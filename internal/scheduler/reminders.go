package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	reminderJobName    = "reservation_reminders"
	reminderJobTimeout = 2 * time.Minute
)

// ReminderSender delivers reminders for reservations starting within
// [now+lead, now+lead+window).
type ReminderSender interface {
	SendReminders(ctx context.Context, lead, window time.Duration) (int, error)
}

// RegisterReminderJobs registers the reservation reminder sweep. Each run
// covers the window that opens hoursBefore hours from now. window must equal
// the period of cronExpr so consecutive runs neither overlap nor leave gaps.
func RegisterReminderJobs(sender ReminderSender, cronExpr string, hoursBefore int, window time.Duration) error {
	if sender == nil {
		return fmt.Errorf("reminder jobs require a reminder sender")
	}
	if hoursBefore <= 0 {
		return fmt.Errorf("reminder lead time must be positive, got %d hours", hoursBefore)
	}
	if window <= 0 {
		return fmt.Errorf("reminder window must be positive, got %s", window)
	}

	jobLogger := log.With().
		Str("component", "reservation_reminders_job").
		Str("job_name", reminderJobName).
		Str("cron", cronExpr).
		Logger()
	lead := time.Duration(hoursBefore) * time.Hour

	_, err := AddJob(reminderJobName, cronExpr, func() {
		runReminders(context.Background(), sender, lead, window, &jobLogger)
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add reservation reminder job: %w", err)
	}

	jobLogger.Info().Dur("lead", lead).Dur("window", window).Msg("Reservation reminder job registered")
	return nil
}

func runReminders(parent context.Context, sender ReminderSender, lead, window time.Duration, logger *zerolog.Logger) int {
	ctx, cancel := context.WithTimeout(parent, reminderJobTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx)

	sent, err := sender.SendReminders(ctx, lead, window)
	if err != nil {
		logger.Error().Err(err).Msg("Reminder sweep failed")
		return sent
	}
	if sent > 0 {
		logger.Info().Int("sent", sent).Msg("Reservation reminders sent")
	}
	return sent
}
