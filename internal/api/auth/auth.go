// Package auth verifies the bearer tokens issued by the campus identity
// service and keeps the local user read-model in step with their claims.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/codr1/CampusCourts/internal/api/authz"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing bearer token")
)

type Claims struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	CampusID string `json:"campus_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret  []byte
	queries *dbgen.Queries
	now     func() time.Time

	// synced remembers the last profile written per user so steady traffic
	// does not rewrite the users table on every request.
	synced sync.Map
}

// NewAuthenticator verifies HS256 tokens signed with secret. A nil queries
// disables profile synchronization.
func NewAuthenticator(secret string, queries *dbgen.Queries) *Authenticator {
	return &Authenticator{
		secret:  []byte(secret),
		queries: queries,
		now:     time.Now,
	}
}

// IssueToken signs a token for user. Used by development tooling and tests;
// production tokens come from the identity service.
func (a *Authenticator) IssueToken(user authz.AuthUser, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Role:     authz.NormalizeRole(user.Role),
		Name:     user.DisplayName,
		CampusID: user.CampusID,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken validates raw and returns the user it identifies.
func (a *Authenticator) ParseToken(raw string) (*authz.AuthUser, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: subject must be a positive user id", ErrInvalidToken)
	}
	return &authz.AuthUser{
		ID:          id,
		Role:        authz.NormalizeRole(claims.Role),
		DisplayName: strings.TrimSpace(claims.Name),
		CampusID:    strings.TrimSpace(claims.CampusID),
		Email:       strings.TrimSpace(claims.Email),
	}, nil
}

// UserFromRequest reads the Authorization header. It returns ErrMissingToken
// when the request carries no bearer token.
func (a *Authenticator) UserFromRequest(r *http.Request) (*authz.AuthUser, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, ErrMissingToken
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return a.ParseToken(strings.TrimSpace(raw))
}

// SyncProfile stores the display fields of user so reports and notices can
// show them.
func (a *Authenticator) SyncProfile(ctx context.Context, user *authz.AuthUser) error {
	if a.queries == nil || user == nil {
		return nil
	}
	profile := *user
	profile.Role = ""
	if last, ok := a.synced.Load(user.ID); ok && last.(authz.AuthUser) == profile {
		return nil
	}

	email := sql.NullString{}
	if user.Email != "" {
		email = sql.NullString{String: user.Email, Valid: true}
	}
	if err := a.queries.UpsertUserProfile(ctx, dbgen.UpsertUserProfileParams{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		CampusID:    user.CampusID,
		Email:       email,
		UpdatedAt:   a.now().UTC().Truncate(time.Second),
	}); err != nil {
		return fmt.Errorf("upsert user profile: %w", err)
	}
	a.synced.Store(user.ID, profile)
	return nil
}
