package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:            "8080",
		DBDriver:        DriverSQLite,
		SQLiteDBPath:    filepath.Join(t.TempDir(), "resale.db"),
		DBPort:          3306,
		ReportSince:     "2017-01",
		QueryTimeout:    7 * time.Second,
		LogLevel:        "info",
		ImportBatchSize: 500,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid sqlite config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid mysql config",
			mutate: func(c *Config) {
				c.DBDriver = DriverMySQL
				c.DBHost = "db.internal"
				c.DBUser = "reports"
				c.DBName = "resale_flats"
			},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid trusted proxy",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"10.1.0.0/16", "nope"} },
			wantErr:     true,
			errorString: "invalid trusted proxy 'nope': must be a CIDR",
		},
		{
			name:        "negative rate limit",
			mutate:      func(c *Config) { c.RateLimitPerMinute = -1 },
			wantErr:     true,
			errorString: "invalid rate limit -1: must be 0 (disabled) or positive",
		},
		{
			name:   "rate limit disabled",
			mutate: func(c *Config) { c.RateLimitPerMinute = 0 },
		},
		{
			name:        "invalid driver",
			mutate:      func(c *Config) { c.DBDriver = "postgres" },
			wantErr:     true,
			errorString: "invalid database driver 'postgres': must be one of [sqlite mysql]",
		},
		{
			name:        "sqlite missing path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite driver",
		},
		{
			name: "mysql missing user",
			mutate: func(c *Config) {
				c.DBDriver = DriverMySQL
				c.DBHost = "db.internal"
				c.DBName = "resale_flats"
			},
			wantErr:     true,
			errorString: "DB_USER is required when using mysql driver",
		},
		{
			name: "mysql bad port",
			mutate: func(c *Config) {
				c.DBDriver = DriverMySQL
				c.DBHost = "db.internal"
				c.DBUser = "reports"
				c.DBName = "resale_flats"
				c.DBPort = 0
			},
			wantErr:     true,
			errorString: "invalid database port 0",
		},
		{
			name:        "bad report month",
			mutate:      func(c *Config) { c.ReportSince = "Jan 2017" },
			wantErr:     true,
			errorString: "invalid report start month 'Jan 2017': expected YYYY-MM",
		},
		{
			name:        "query timeout too short",
			mutate:      func(c *Config) { c.QueryTimeout = 10 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid query timeout 10ms: must be at least 100ms",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "import batch too large",
			mutate:      func(c *Config) { c.ImportBatchSize = 20000 },
			wantErr:     true,
			errorString: "invalid import batch size 20000: must be at most 10000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "abc"
	cfg.ReportSince = "nope"
	cfg.ImportBatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "invalid report start month")
	assert.Contains(t, err.Error(), "invalid import batch size 0")
}

func TestConfig_ValidateNormalisesMonth(t *testing.T) {
	cfg := validConfig(t)
	cfg.ReportSince = "2018-3"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "2018-03", string(cfg.Since()))
}

func TestConfig_DSN(t *testing.T) {
	cfg := validConfig(t)
	assert.Equal(t, "file:"+cfg.SQLiteDBPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DSN())

	cfg.DBDriver = DriverMySQL
	cfg.DBHost = "db.internal"
	cfg.DBUser = "reports"
	cfg.DBPassword = "s3cret"
	cfg.DBName = "resale_flats"
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "reports:s3cret@tcp(db.internal:3306)/resale_flats")
	assert.Contains(t, dsn, "multiStatements=true")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestConfig_SlogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.LogLevel = "DEBUG"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.LogLevel = "warning"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.LogLevel = "bogus"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, k := range []string{"PORT", "DB_DRIVER", "SQLITE_DB_PATH", "REPORT_SINCE", "QUERY_TIMEOUT", "IMPORT_BATCH_SIZE", "DB_PORT", "RATE_LIMIT_PER_MINUTE"} {
			// Setenv registers the restore; the variable must be absent, not empty.
			t.Setenv(k, "")
			os.Unsetenv(k)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Equal(t, "./data/resale.db", cfg.SQLiteDBPath)
		assert.Equal(t, "2017-01", cfg.ReportSince)
		assert.Equal(t, 7*time.Second, cfg.QueryTimeout)
		assert.Equal(t, 500, cfg.ImportBatchSize)
		assert.Equal(t, 3306, cfg.DBPort)
		assert.Equal(t, 120, cfg.RateLimitPerMinute)
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "3000")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("DB_HOST", "127.0.0.1")
		t.Setenv("DB_USER", "hdb")
		t.Setenv("DB_PORT", "3307")
		t.Setenv("REPORT_SINCE", "2020-06")
		t.Setenv("QUERY_TIMEOUT", "15s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, DriverMySQL, cfg.DBDriver)
		assert.Equal(t, "127.0.0.1", cfg.DBHost)
		assert.Equal(t, "hdb", cfg.DBUser)
		assert.Equal(t, 3307, cfg.DBPort)
		assert.Equal(t, "2020-06", cfg.ReportSince)
		assert.Equal(t, 15*time.Second, cfg.QueryTimeout)
	})

	t.Run("malformed number is an error", func(t *testing.T) {
		t.Setenv("DB_PORT", "not-a-port")

		_, err := Load()
		assert.Error(t, err)
	})
}
