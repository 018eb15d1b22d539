package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-sql-driver/mysql"

	"resaleflats/internal/core"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8080"`
	// CIDRs whose X-Forwarded-For is trusted, in addition to private networks.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	// Report pages per client per minute; 0 disables the limit.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// Database
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/resale.db"`
	DBHost       string `env:"DB_HOST" envDefault:"localhost"`
	DBUser       string `env:"DB_USER"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBName       string `env:"DB_NAME" envDefault:"resale_flats"`
	DBPort       int    `env:"DB_PORT" envDefault:"3306"`

	// Reports
	ReportSince  string        `env:"REPORT_SINCE" envDefault:"2017-01"`
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"7s"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Import
	ImportBatchSize     int    `env:"IMPORT_BATCH_SIZE" envDefault:"500"`
	GoogleSpreadsheetID string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName     string `env:"GOOGLE_SHEET_NAME" envDefault:"ResaleFlatPrices"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be 0 (disabled) or positive", c.RateLimitPerMinute))
	}

	validDrivers := []string{DriverSQLite, DriverMySQL}
	if !slices.Contains(validDrivers, c.DBDriver) {
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of %v", c.DBDriver, validDrivers))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case DriverMySQL:
		if c.DBHost == "" {
			errors = append(errors, "DB_HOST is required when using mysql driver")
		}
		if c.DBUser == "" {
			errors = append(errors, "DB_USER is required when using mysql driver")
		}
		if c.DBName == "" {
			errors = append(errors, "DB_NAME is required when using mysql driver")
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", c.DBPort))
		}
	}

	if m, err := core.ParseMonth(c.ReportSince); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report start month '%s': expected YYYY-MM", c.ReportSince))
	} else {
		c.ReportSince = string(m)
	}

	if c.QueryTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at least 100ms", c.QueryTimeout))
	} else if c.QueryTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at most 5 minutes", c.QueryTimeout))
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.ImportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid import batch size %d: must be at least 1", c.ImportBatchSize))
	} else if c.ImportBatchSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid import batch size %d: must be at most 10000", c.ImportBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Since returns the inclusive lower bound applied to every aggregation report.
func (c *Config) Since() core.Month {
	return core.Month(c.ReportSince)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

// DSN builds the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverMySQL {
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
		mc.DBName = c.DBName
		mc.ParseTime = true
		// golang-migrate runs each migration file as one Exec.
		mc.MultiStatements = true
		return mc.FormatDSN()
	}
	return SQLiteDSN(c.SQLiteDBPath)
}

// SQLiteDSN turns a file path into a modernc sqlite DSN with foreign keys on.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
