// cmd/storefront/main.go
package main

import (
	"fmt"
	"os"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/interfaces/cli"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
