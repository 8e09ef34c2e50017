// scripts/generate_admin_token.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_admin_token.go <operator-name>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	manager := auth.NewJWTManager(cfg)
	token, err := manager.GenerateAccessToken(os.Args[1], true)
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	if _, err := manager.ValidateAccessToken(token); err != nil {
		log.Fatal("Token verification failed:", err)
	}

	fmt.Printf("Operator: %s\n", os.Args[1])
	fmt.Printf("Expires in: %s\n", cfg.JWT.AccessTokenExpiry)
	fmt.Printf("Token: %s\n", token)
}
