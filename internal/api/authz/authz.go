package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

type AuthUser struct {
	ID          int64
	Role        string
	DisplayName string
	CampusID    string
	Email       string
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// NormalizeRole lowercases role and maps anything unknown to student.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	default:
		return RoleStudent
	}
}

// IsPrivileged reports whether user may see every reservation: staff and admins.
func IsPrivileged(user *AuthUser) bool {
	if user == nil {
		return false
	}
	role := NormalizeRole(user.Role)
	return role == RoleStaff || role == RoleAdmin
}

// CanCancelReservation reports whether user may cancel a reservation owned by
// ownerID. Owners may cancel their own; staff and admins may cancel any.
func CanCancelReservation(user *AuthUser, ownerID int64) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID || IsPrivileged(user)
}

// CanViewReservation follows the same rule as cancellation.
func CanViewReservation(user *AuthUser, ownerID int64) bool {
	return CanCancelReservation(user, ownerID)
}

// RequireUser returns the authenticated user or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequirePrivileged returns the user when they are staff or admin.
func RequirePrivileged(ctx context.Context) (*AuthUser, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !IsPrivileged(user) {
		return user, ErrForbidden
	}
	return user, nil
}
