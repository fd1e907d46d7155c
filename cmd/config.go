package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	Aspect4BaseURL   string
	Aspect4Username  string
	Aspect4Password  string
	FetchConcurrency int
	FetchTimeout     time.Duration
	FetchRetries     int
}

// loadConfig reads the environment, with .env as a convenience for local
// runs.
func loadConfig() Config {
	_ = godotenv.Load()

	return Config{
		HTTPPort:         envOr("PORT", "8080"),
		Aspect4BaseURL:   os.Getenv("ASPECT4_BASE_URL"),
		Aspect4Username:  os.Getenv("ASPECT4_USERNAME"),
		Aspect4Password:  os.Getenv("ASPECT4_PASSWORD"),
		FetchConcurrency: envIntOr("FETCH_CONCURRENCY", 5),
		FetchTimeout:     time.Duration(envIntOr("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		FetchRetries:     envIntOr("FETCH_RETRIES", 3),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
