package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestDatabase reads the integration test database settings from TEST_DB_* variables.
// It reports false when any of them is missing so callers can skip.
func LoadTestDatabase() (DatabaseConfig, bool) {
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		User:     os.Getenv("TEST_DB_USER"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   os.Getenv("TEST_DB_NAME"),
	}
	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil || cfg.Host == "" || cfg.User == "" || cfg.DBName == "" {
		return DatabaseConfig{}, false
	}
	cfg.Port = port
	return cfg, true
}
