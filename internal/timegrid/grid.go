// Package timegrid defines the bookable day and the interval arithmetic shared
// by the availability and reservation paths. Everything here is pure.
package timegrid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidWindow   = errors.New("closing hour must be after opening hour")
	ErrInvalidSlotSize = errors.New("invalid slot size")
)

// Grid is the operating window of a venue discretized into fixed units.
// Hours are wall-clock hours in Location; instants handed out are UTC.
type Grid struct {
	OpenHour    int
	CloseHour   int
	Granularity time.Duration
	Location    *time.Location
}

// New validates the window and returns a Grid. A nil location means UTC.
func New(openHour, closeHour int, granularity time.Duration, loc *time.Location) (Grid, error) {
	if loc == nil {
		loc = time.UTC
	}
	if openHour < 0 || closeHour > 24 || closeHour <= openHour {
		return Grid{}, ErrInvalidWindow
	}
	if granularity <= 0 || granularity%time.Minute != 0 {
		return Grid{}, fmt.Errorf("%w: granularity must be a positive whole number of minutes", ErrInvalidSlotSize)
	}
	window := time.Duration(closeHour-openHour) * time.Hour
	if window%granularity != 0 {
		return Grid{}, fmt.Errorf("%w: granularity %s does not divide the operating window", ErrInvalidSlotSize, granularity)
	}
	return Grid{OpenHour: openHour, CloseHour: closeHour, Granularity: granularity, Location: loc}, nil
}

func (g Grid) location() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

// OperatingWindow returns the opening and closing hour of every bookable day.
func (g Grid) OperatingWindow() (int, int) {
	return g.OpenHour, g.CloseHour
}

// ParseDate reads a YYYY-MM-DD calendar day in the venue's time zone.
func (g Grid) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, g.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return parsed, nil
}

// DayBounds returns the UTC opening and closing instants of the venue day that
// contains date.
func (g Grid) DayBounds(date time.Time) (time.Time, time.Time) {
	local := date.In(g.location())
	open := time.Date(local.Year(), local.Month(), local.Day(), g.OpenHour, 0, 0, 0, g.location())
	// time.Date normalizes hour 24 to midnight of the next day.
	close := time.Date(local.Year(), local.Month(), local.Day(), g.CloseHour, 0, 0, 0, g.location())
	return open.UTC(), close.UTC()
}

// ValidateSlotSize reports whether slot can tile the operating window.
func (g Grid) ValidateSlotSize(slot time.Duration) error {
	if slot <= 0 || slot%g.Granularity != 0 {
		return fmt.Errorf("%w: must be a positive multiple of %d minutes", ErrInvalidSlotSize, int(g.Granularity.Minutes()))
	}
	window := time.Duration(g.CloseHour-g.OpenHour) * time.Hour
	if window%slot != 0 {
		return fmt.Errorf("%w: %d minutes does not divide the operating window", ErrInvalidSlotSize, int(slot.Minutes()))
	}
	return nil
}

// EnumerateSlots returns every slot start between open and close of the given
// day, exclusive of close, as UTC instants.
func (g Grid) EnumerateSlots(date time.Time, slot time.Duration) ([]time.Time, error) {
	if err := g.ValidateSlotSize(slot); err != nil {
		return nil, err
	}
	open, close := g.DayBounds(date)
	slots := make([]time.Time, 0, int(close.Sub(open)/slot))
	for start := open; start.Add(slot).Compare(close) <= 0; start = start.Add(slot) {
		slots = append(slots, start)
	}
	return slots, nil
}

// Aligned reports whether instant falls on a unit boundary counted from the
// opening time of its own venue day.
func (g Grid) Aligned(instant time.Time) bool {
	open, _ := g.DayBounds(instant)
	offset := instant.Sub(open)
	if offset < 0 {
		return false
	}
	return offset%g.Granularity == 0
}

// WithinWindow reports whether [start, end) lies inside the operating window
// of start's venue day.
func (g Grid) WithinWindow(start, end time.Time) bool {
	open, close := g.DayBounds(start)
	return !start.Before(open) && !end.After(close) && end.After(start)
}

// Units decomposes [start, end) into the grid units it covers.
func (g Grid) Units(start, end time.Time) []time.Time {
	var units []time.Time
	for unit := start.UTC(); unit.Before(end); unit = unit.Add(g.Granularity) {
		units = append(units, unit)
	}
	return units
}

// In converts instant to the venue time zone.
func (g Grid) In(instant time.Time) time.Time {
	return instant.In(g.location())
}

// LocalHour returns the venue wall-clock hour and minute of instant.
func (g Grid) LocalHour(instant time.Time) (int, int) {
	local := instant.In(g.location())
	return local.Hour(), local.Minute()
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share an instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsPast reports whether instant is no longer bookable: at or before now
// plus guard.
func IsPast(instant, now time.Time, guard time.Duration) bool {
	return !instant.After(now.Add(guard))
}
