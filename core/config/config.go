package config

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load parses environment variables into the given struct pointer.
// A .env file in the working directory is loaded once per process, without
// overriding variables already present in the environment.
func Load(cfg any) error {
	loadDotEnv.Do(func() {
		// Missing .env is the normal case outside local development.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment config: %w", err)
	}
	return nil
}

// MustLoad is like Load but panics on failure. Intended for process startup
// where a missing required variable should fail fast.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
