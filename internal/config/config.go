package config

import (
	"log"
	"os"
	"strconv"
)

// ConsistencyMode controls how the capital check relates to the commitment
// write. "snapshot" validates against the last persisted snapshot only (the
// original behavior, racy under concurrent commitments); "serialized" holds
// a per-project lock across the check and the write.
type ConsistencyMode string

const (
	ConsistencySnapshot   ConsistencyMode = "snapshot"
	ConsistencySerialized ConsistencyMode = "serialized"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	Consistency    ConsistencyMode
	RecalcQueueLen int
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=kisheka port=5432 sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Consistency:    ConsistencyMode(getEnv("CONSISTENCY_MODE", string(ConsistencySnapshot))),
		RecalcQueueLen: getEnvInt("RECALC_QUEUE_SIZE", 64),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set. Required in every environment.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters.")
	}
	if cfg.Consistency != ConsistencySnapshot && cfg.Consistency != ConsistencySerialized {
		log.Fatalf("[FATAL] CONSISTENCY_MODE must be %q or %q, got %q", ConsistencySnapshot, ConsistencySerialized, cfg.Consistency)
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=kisheka port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN is using the default value; set a real Postgres DSN for production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the default value; set your own domain for production.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("[WARN] %s is not a positive integer, using default %d", key, def)
	}
	return def
}
