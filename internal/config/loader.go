package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joscoffee/timeclock/internal/logging"
)

const defaultEnvFile = ".env"

// Config captures environment driven configuration values for the time clock service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	// AdminSecret is plain text or an argon2id PHC string. It may be empty, in
	// which case admin requests fail with a configuration error.
	AdminSecret    string
	LogLevel       slog.Level
	StorageRetries int
	BusyTimeout    time.Duration
}

// Load parses configuration values from the process environment, falling back
// to the dotenv file named by TIMECLOCK_ENV_FILE (default ".env"). A missing
// dotenv file is ignored and real environment variables always win.
//
// Every invalid value is reported in one aggregated error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "timeclock.db",
		LogLevel:       slog.LevelInfo,
		StorageRetries: 3,
		BusyTimeout:    5 * time.Second,
	}

	envFile := strings.TrimSpace(os.Getenv("TIMECLOCK_ENV_FILE"))
	if envFile == "" {
		envFile = defaultEnvFile
	}
	fileValues, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	lookup := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(fileValues[key])
	}

	invalid := make([]string, 0, 4)

	if portValue := lookup("TIMECLOCK_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "TIMECLOCK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := lookup("TIMECLOCK_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.AdminSecret = lookup("TIMECLOCK_ADMIN_PASS")
	if cfg.AdminSecret == "" {
		cfg.AdminSecret = lookup("ADMIN_PASS")
	}

	if levelValue := lookup("TIMECLOCK_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "TIMECLOCK_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if retriesValue := lookup("TIMECLOCK_STORAGE_RETRIES"); retriesValue != "" {
		retries, err := strconv.Atoi(retriesValue)
		if err != nil || retries < 0 {
			invalid = append(invalid, "TIMECLOCK_STORAGE_RETRIES")
		} else {
			cfg.StorageRetries = retries
		}
	}

	if timeoutValue := lookup("TIMECLOCK_BUSY_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout < 0 {
			invalid = append(invalid, "TIMECLOCK_BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = timeout
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
