package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	Timezone  *time.Location
}

// Load parses configuration values from the current process environment. A
// .env file next to the binary is merged in first when present; real
// environment variables win over file values.
//
// Defaults target the single-campus deployment: Asia/Makassar and a local
// SQLite file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:  8080,
		SQLiteDSN: "file:scheduler.db",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	zoneName := "Asia/Makassar"
	if value := strings.TrimSpace(os.Getenv("SCHEDULER_TIMEZONE")); value != "" {
		zoneName = value
	}
	location, err := time.LoadLocation(zoneName)
	if err != nil {
		invalid = append(invalid, "SCHEDULER_TIMEZONE")
	} else {
		cfg.Timezone = location
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("nilai variabel lingkungan tidak valid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
