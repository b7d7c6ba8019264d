// Package config loads server configuration purely from the process
// environment. No deployment target ships a config file alongside this
// server, so environment variables are the natural fit; the remaining
// tunables are fixed constants, not meant to vary per-deployment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds every environment-derived setting the server needs at boot.
type Config struct {
	Port            string
	MongoURI        string
	AllowedOrigins  []string
	Env             Environment
	MoveThrottle    time.Duration
	AttackThrottle  time.Duration
	MaxPendingQueue int
	MaxInFlight     int
	IdleTimeout     time.Duration
}

// Environment selects logging and CORS behavior.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvTest        Environment = "test"
)

const (
	defaultPort           = "3000"
	defaultMoveThrottle   = 80 * time.Millisecond
	defaultAttackThrottle = 400 * time.Millisecond
	defaultMaxPending     = 5
	defaultMaxInFlight    = 3
	defaultIdleTimeout    = 5 * time.Minute
)

// Load reads Config from the environment. MONGODB_URI is required outside
// of test mode; everything else has a spec-literal default.
func Load() (Config, error) {
	cfg := Config{
		Port:            envOr("PORT", defaultPort),
		MongoURI:        os.Getenv("MONGODB_URI"),
		Env:             Environment(envOr("NODE_ENV", string(EnvDevelopment))),
		MoveThrottle:    defaultMoveThrottle,
		AttackThrottle:  defaultAttackThrottle,
		MaxPendingQueue: defaultMaxPending,
		MaxInFlight:     defaultMaxInFlight,
		IdleTimeout:     defaultIdleTimeout,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.MongoURI == "" && cfg.Env != EnvTest {
		return Config{}, fmt.Errorf("config: MONGODB_URI is required outside of NODE_ENV=test")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
