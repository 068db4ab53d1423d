package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/codr1/CampusCourts/internal/api/authz"
	appdb "github.com/codr1/CampusCourts/internal/db"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("time slot is no longer available")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)

// Error kinds exposed to clients. They are stable strings.
const (
	KindValidation       = "validation"
	KindConflict         = "conflict"
	KindNotFound         = "not_found"
	KindForbidden        = "forbidden"
	KindUnauthenticated  = "unauthenticated"
	KindStoreUnavailable = "store_unavailable"
	KindInternal         = "internal"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError names the interval that could not be booked.
type ConflictError struct {
	CourtID int64
	Start   time.Time
	End     time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("court %d is already booked between %s and %s",
		e.CourtID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// KindOf classifies err for transport layers. Lock and I/O failures raised
// outside a query, such as BEGIN or COMMIT timing out, count as
// store_unavailable.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, authz.ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden), errors.Is(err, authz.ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrStoreUnavailable), appdb.IsUnavailable(err):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// storeError wraps a database failure, tagging lock and I/O failures as
// ErrStoreUnavailable.
func storeError(op string, err error) error {
	if appdb.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
