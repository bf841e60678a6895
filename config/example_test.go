package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sagarc03/depot/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Catalog: %s\n", cfg.Server.Port, cfg.Database.Type)
	// Output: Port: 3000, Catalog: sqlite
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved storage path: %s\n", retrieved.Storage.Path)
	// Output: Retrieved storage path: ./data
}
