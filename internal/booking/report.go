package booking

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/codr1/CampusCourts/internal/api/authz"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
	maxReportRange  = 366 * 24 * time.Hour
)

// likeEscaper matches the ESCAPE '\' clause of the report search queries.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type ReportFilter struct {
	Sport    string
	CourtID  int64
	UserID   int64
	Status   string
	From     *time.Time
	To       *time.Time
	Search   string
	Page     int
	PageSize int
}

type ReportPage struct {
	Items    []ReservationDetail `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

type CourtSummary struct {
	CourtID        int64  `json:"court_id"`
	CourtName      string `json:"court_name"`
	Sport          string `json:"sport"`
	BookedCount    int64  `json:"booked_count"`
	CancelledCount int64  `json:"cancelled_count"`
	BookedMinutes  int64  `json:"booked_minutes"`
}

type Summary struct {
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	Courts         []CourtSummary `json:"courts"`
	BookedCount    int64          `json:"booked_count"`
	CancelledCount int64          `json:"cancelled_count"`
	BookedMinutes  int64          `json:"booked_minutes"`
}

// ParseStatus normalizes a status filter. An empty value means any status.
func ParseStatus(raw string) (string, error) {
	status := strings.ToUpper(strings.TrimSpace(raw))
	switch status {
	case "", StatusBooked, StatusCancelled:
		return status, nil
	}
	return "", invalid("status", "must be BOOKED or CANCELLED")
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullID(value int64) sql.NullInt64 {
	if value <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value, Valid: true}
}

// ListReservations returns a filtered, paginated listing joined with court
// and requester fields. Staff and admins may use every filter; anyone else
// only ever sees their own reservations.
func (s *Service) ListReservations(ctx context.Context, viewer *authz.AuthUser, filter ReportFilter) (ReportPage, error) {
	if viewer == nil {
		return ReportPage{}, authz.ErrUnauthenticated
	}
	if !authz.IsPrivileged(viewer) {
		filter.UserID = viewer.ID
	}

	sport, err := ParseSport(filter.Sport)
	if err != nil {
		return ReportPage{}, err
	}
	status, err := ParseStatus(filter.Status)
	if err != nil {
		return ReportPage{}, err
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return ReportPage{}, invalid("to", "must be after from")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		return ReportPage{}, invalid("page_size", "must not exceed 100")
	}
	search := escapeLike(strings.TrimSpace(filter.Search))

	countParams := dbgen.CountReservationReportParams{
		Sport:      nullString(sport),
		CourtID:    nullID(filter.CourtID),
		UserID:     nullID(filter.UserID),
		Status:     nullString(status),
		RangeStart: nullTime(filter.From),
		RangeEnd:   nullTime(filter.To),
		Search:     nullString(search),
	}
	total, err := s.db.Queries.CountReservationReport(ctx, countParams)
	if err != nil {
		return ReportPage{}, storeError("count reservations", err)
	}

	rows, err := s.db.Queries.ListReservationReport(ctx, dbgen.ListReservationReportParams{
		Sport:      countParams.Sport,
		CourtID:    countParams.CourtID,
		UserID:     countParams.UserID,
		Status:     countParams.Status,
		RangeStart: countParams.RangeStart,
		RangeEnd:   countParams.RangeEnd,
		Search:     countParams.Search,
		RowLimit:   int64(pageSize),
		RowOffset:  int64((page - 1) * pageSize),
	})
	if err != nil {
		return ReportPage{}, storeError("list reservations", err)
	}

	items := make([]ReservationDetail, 0, len(rows))
	for _, row := range rows {
		items = append(items, detailFromReportRow(row))
	}
	return ReportPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func detailFromReportRow(row dbgen.ListReservationReportRow) ReservationDetail {
	detail := ReservationDetail{
		Reservation: reservationFromRow(dbgen.Reservation{
			ID:                row.ID,
			CourtID:           row.CourtID,
			UserID:            row.UserID,
			StartTime:         row.StartTime,
			EndTime:           row.EndTime,
			Status:            row.Status,
			CreatedAt:         row.CreatedAt,
			CancelledAt:       row.CancelledAt,
			CancelledByUserID: row.CancelledByUserID,
		}),
		CourtName: row.CourtName,
		Sport:     row.Sport,
		Location:  row.Location,
	}
	if row.DisplayName.Valid {
		detail.RequesterName = row.DisplayName.String
	}
	if row.CampusID.Valid {
		detail.RequesterCampusID = row.CampusID.String
	}
	return detail
}

// Summarize reports per-court booked and cancelled counts and booked minutes
// for reservations overlapping [from, to). Staff and admins only.
func (s *Service) Summarize(ctx context.Context, viewer *authz.AuthUser, from, to time.Time, sport string) (Summary, error) {
	if viewer == nil {
		return Summary{}, authz.ErrUnauthenticated
	}
	if !authz.IsPrivileged(viewer) {
		return Summary{}, ErrForbidden
	}
	sport, err := ParseSport(sport)
	if err != nil {
		return Summary{}, err
	}
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return Summary{}, invalid("to", "must be after from")
	}
	if to.Sub(from) > maxReportRange {
		return Summary{}, invalid("to", "range must not exceed 366 days")
	}

	rows, err := s.db.Queries.SummarizeReservations(ctx, dbgen.SummarizeReservationsParams{
		RangeStart: from,
		RangeEnd:   to,
		Sport:      nullString(sport),
	})
	if err != nil {
		return Summary{}, storeError("summarize reservations", err)
	}

	summary := Summary{From: from, To: to, Courts: make([]CourtSummary, 0, len(rows))}
	for _, row := range rows {
		summary.Courts = append(summary.Courts, CourtSummary{
			CourtID:        row.CourtID,
			CourtName:      row.CourtName,
			Sport:          row.Sport,
			BookedCount:    row.BookedCount,
			CancelledCount: row.CancelledCount,
			BookedMinutes:  row.BookedMinutes,
		})
		summary.BookedCount += row.BookedCount
		summary.CancelledCount += row.CancelledCount
		summary.BookedMinutes += row.BookedMinutes
	}
	return summary, nil
}
