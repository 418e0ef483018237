// Package config provides type-safe environment variable loading using the
// caarlos0/env library. A .env file is loaded automatically on first use so
// local development does not need exported variables.
//
// The application assembles its configuration once at process start and passes
// it by reference to every component, keeping the core logic free of
// environment globals:
//
//	var cfg config.App
//	config.MustLoad(&cfg)
package config
