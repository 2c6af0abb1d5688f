package config

import (
	"os"
	"strings"
)

type Config struct {
	Port             string
	DatabaseURL      string
	StateFile        string
	JWTSecret        string
	AdminOverridePin string
	NATSURL          string
	AllowedOrigins   []string
}

// Load reads configuration from the environment. An empty DATABASE_URL
// selects the in-memory store; STATE_FILE then controls whether that store
// snapshots itself to disk.
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		StateFile:        getEnv("STATE_FILE", ""),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminOverridePin: getEnv("ADMIN_OVERRIDE_PIN", "5566"),
		NATSURL:          getEnv("NATS_URL", ""),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
