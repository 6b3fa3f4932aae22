// Package config provides type-safe environment variable loading with
// per-type caching.
//
// A .env file is loaded once on first use (missing files are fine), then
// caarlos0/env parses environment variables into struct fields. Each
// configuration type is loaded a single time per process; later calls for
// the same type return the cached value.
//
//	type ServerConfig struct {
//		Addr       string        `env:"AUTHD_ADDR" envDefault:":8080"`
//		SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
package config
