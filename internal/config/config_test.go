package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/glucose")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "localhost:3000", cfg.APIAddr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "UTC", cfg.DefaultTimezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "db", cfg.MigrationsDir)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/glucose.db")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Oslo")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/glucose.db", cfg.SQLitePath)
	assert.Equal(t, "Europe/Oslo", cfg.Location().String())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBDriver:        DriverSQLite,
		SQLitePath:      "glucose.db",
		DefaultTimezone: "UTC",
		LogLevel:        "info",
		LogFormat:       "json",
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "DB_URL"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"bad timezone", func(c *Config) { c.DefaultTimezone = "Moon/Base" }, "DEFAULT_TIMEZONE"},
	}

	require.NoError(t, valid.Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<not set>", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "post...cose", MaskSecret("postgres://u:p@host/glucose"))
}
