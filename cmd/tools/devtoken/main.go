// cmd/tools/devtoken/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/auth"
	"github.com/codr1/CampusCourts/internal/api/authz"
)

// Prints a signed bearer token for local testing against a development server.
func main() {
	var (
		secret   = flag.String("secret", os.Getenv("APP_SECRET_KEY"), "Signing secret (defaults to APP_SECRET_KEY)")
		userID   = flag.Int64("user", 0, "User id (token subject)")
		role     = flag.String("role", authz.RoleStudent, "Role: student, staff or admin")
		name     = flag.String("name", "", "Display name")
		campusID = flag.String("campus-id", "", "Campus id")
		email    = flag.String("email", "", "Email address")
		ttl      = flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *secret == "" {
		log.Fatal().Msg("-secret or APP_SECRET_KEY is required")
	}
	if *userID <= 0 {
		log.Fatal().Msg("-user must be a positive id")
	}

	token, err := auth.NewAuthenticator(*secret, nil).IssueToken(authz.AuthUser{
		ID:          *userID,
		Role:        *role,
		DisplayName: *name,
		CampusID:    *campusID,
		Email:       *email,
	}, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Println(token)
}
