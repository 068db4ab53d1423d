package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// OptionalPositiveInt64 parses a query parameter that may be absent. Absent
// yields 0.
func OptionalPositiveInt64(r *http.Request, field string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return 0, nil
	}
	return ParsePositiveInt64Field(raw, field)
}

// OptionalInt parses a non-negative integer query parameter. Absent yields 0.
func OptionalInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, FieldError{Field: field, Reason: "must be 0 or greater"}
	}
	return value, nil
}

// PathID reads a positive integer path value such as {id}.
func PathID(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

// ParseInstant accepts RFC 3339 timestamps and bare YYYY-MM-DD dates, which
// are read as midnight UTC. The result is UTC.
func ParseInstant(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, FieldError{Field: field, Reason: "must be an RFC 3339 timestamp or YYYY-MM-DD date"}
}

// OptionalInstant is ParseInstant for a query parameter that may be absent.
func OptionalInstant(r *http.Request, field string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return nil, nil
	}
	parsed, err := ParseInstant(raw, field)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseIDList reads a comma-separated list of positive ids.
func ParseIDList(raw string, field string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := ParsePositiveInt64Field(part, field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
