package authz

import (
	"context"
	"errors"
	"testing"
)

func TestCanCancelReservation(t *testing.T) {
	cases := []struct {
		name  string
		user  *AuthUser
		owner int64
		want  bool
	}{
		{name: "anonymous", user: nil, owner: 1, want: false},
		{name: "owner", user: &AuthUser{ID: 1, Role: RoleStudent}, owner: 1, want: true},
		{name: "other student", user: &AuthUser{ID: 2, Role: RoleStudent}, owner: 1, want: false},
		{name: "staff", user: &AuthUser{ID: 3, Role: RoleStaff}, owner: 1, want: true},
		{name: "admin uppercase", user: &AuthUser{ID: 4, Role: "ADMIN"}, owner: 1, want: true},
		{name: "unknown role", user: &AuthUser{ID: 5, Role: "vendor"}, owner: 1, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanCancelReservation(tc.user, tc.owner); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestRequirePrivilegedUnauthenticated(t *testing.T) {
	_, err := RequirePrivileged(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequirePrivilegedStudentForbidden(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &AuthUser{ID: 10, Role: RoleStudent})

	_, err := RequirePrivileged(ctx)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequirePrivilegedStaffAllowed(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &AuthUser{ID: 10, Role: RoleStaff})

	user, err := RequirePrivileged(ctx)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if user.ID != 10 {
		t.Fatalf("expected user 10, got %d", user.ID)
	}
}

func TestUserFromContextWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), userContextKey{}, "not a user")
	if UserFromContext(ctx) != nil {
		t.Fatalf("expected nil user")
	}
}
