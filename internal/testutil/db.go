package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/CampusCourts/internal/db"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts a court and returns its id.
func SeedCourt(t *testing.T, database *db.DB, sport, name, location string) int64 {
	t.Helper()

	ctx := context.Background()
	if err := database.Queries.UpsertCourt(ctx, dbgen.UpsertCourtParams{
		Name:     name,
		Sport:    sport,
		Location: location,
	}); err != nil {
		t.Fatalf("seed court: %v", err)
	}
	court, err := database.Queries.GetCourtBySportAndName(ctx, dbgen.GetCourtBySportAndNameParams{
		Sport: sport,
		Name:  name,
	})
	if err != nil {
		t.Fatalf("load seeded court: %v", err)
	}
	return court.ID
}

// SeedUser stores a user profile as the auth middleware would.
func SeedUser(t *testing.T, database *db.DB, id int64, displayName, campusID, email string) {
	t.Helper()

	var emailValue sql.NullString
	if email != "" {
		emailValue = sql.NullString{String: email, Valid: true}
	}
	if err := database.Queries.UpsertUserProfile(context.Background(), dbgen.UpsertUserProfileParams{
		ID:          id,
		DisplayName: displayName,
		CampusID:    campusID,
		Email:       emailValue,
		UpdatedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// FixedClock returns a clock function pinned to now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
