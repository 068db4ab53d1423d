package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type ReservationDetails struct {
	VenueName   string
	CourtName   string
	Sport       string
	Location    string
	Date        string
	TimeRange   string
	DisplayName string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

// SportLabel turns TENNIS into Tennis.
func SportLabel(sport string) string {
	sport = strings.TrimSpace(sport)
	if sport == "" {
		return "Court"
	}
	return strings.ToUpper(sport[:1]) + strings.ToLower(sport[1:])
}

func BuildConfirmationEmail(details ReservationDetails) Message {
	return buildReservationEmail(
		"Court Reservation Confirmed",
		"Your court reservation is confirmed.",
		details,
		"You can cancel from My Reservations any time before it starts.",
	)
}

// BuildCancellationEmail reports a cancellation. byStaff adds a line telling
// the holder that campus staff released the court.
func BuildCancellationEmail(details ReservationDetails, byStaff bool) Message {
	footer := ""
	if byStaff {
		footer = "This reservation was cancelled by campus recreation staff."
	}
	return buildReservationEmail(
		"Court Reservation Cancelled",
		"Your court reservation has been cancelled.",
		details,
		footer,
	)
}

func BuildReminderEmail(details ReservationDetails) Message {
	return buildReservationEmail(
		"Upcoming Court Reservation Reminder",
		"Reminder: your court reservation is coming up.",
		details,
		"",
	)
}

func buildReservationEmail(subjectPrefix, intro string, details ReservationDetails, footer string) Message {
	venueName := strings.TrimSpace(details.VenueName)
	if venueName == "" {
		venueName = "Campus Recreation"
	}
	court := strings.TrimSpace(details.CourtName)
	if court == "" {
		court = "TBD"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	lines := []string{}
	if name := strings.TrimSpace(details.DisplayName); name != "" {
		lines = append(lines, fmt.Sprintf("Hi %s,", name), "")
	}
	lines = append(lines,
		intro,
		"",
		fmt.Sprintf("Sport: %s", SportLabel(details.Sport)),
		fmt.Sprintf("Court: %s", court),
	)
	if location := strings.TrimSpace(details.Location); location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", location))
	}
	lines = append(lines,
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	)
	if footer != "" {
		lines = append(lines, "", footer)
	}

	return Message{
		Subject: fmt.Sprintf("%s - %s", subjectPrefix, venueName),
		Body:    strings.Join(lines, "\n"),
	}
}
