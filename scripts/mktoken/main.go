// Command mktoken mints a signed access token for local development and
// smoke tests. Production clients get tokens from the identity service;
// this uses the same secret the API validates against.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pulsetrack/attendance-api/internal/service"
	"github.com/pulsetrack/attendance-api/pkg/config"
)

func main() {
	userID := flag.String("user", "dev", "subject to embed in the token")
	role := flag.String("role", "admin", "role claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_EXPIRATION)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	expiration := cfg.JWT.Expiration
	if *ttl > 0 {
		expiration = *ttl
	}

	auth := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: expiration,
		Issuer:     "attendance-api",
	}, nil)

	token, expiresAt, err := auth.IssueToken(*userID, *role)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
	fmt.Printf("expires: %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}
