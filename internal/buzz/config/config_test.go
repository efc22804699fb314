package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("buzz", flag.ContinueOnError)
	cfg, err := parse(fs, []string{"-d", "sqlite:buzz.db", "-k", "s3cret", "-tz", "UTC", "-cors", "https://a.example, https://b.example"}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddress)
	assert.Equal(t, "sqlite:buzz.db", cfg.DatabaseURI)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, int64(1000), cfg.MinMileageUse)
	assert.Equal(t, "@every 1m", cfg.SweepSchedule)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestEnvOverridesFlags(t *testing.T) {
	fs := flag.NewFlagSet("buzz", flag.ContinueOnError)
	cfg, err := parse(fs, []string{"-a", ":1", "-d", "flag-db", "-k", "flag", "-tz", "UTC"}, env(map[string]string{
		"RUN_ADDRESS":          ":9090",
		"DATABASE_URI":         "postgres://localhost/buzz",
		"SALES_SYSTEM_ADDRESS": "http://pos:8081",
		"SECRET_KEY":           "env",
		"SWEEP_SCHEDULE":       "@every 30s",
		"MIN_MILEAGE_USE":      "500",
		"CORS_ORIGINS":         "https://admin.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.RunAddress)
	assert.Equal(t, "postgres://localhost/buzz", cfg.DatabaseURI)
	assert.Equal(t, "http://pos:8081", cfg.SalesSystemAddress)
	assert.Equal(t, "env", cfg.SecretKey)
	assert.Equal(t, "@every 30s", cfg.SweepSchedule)
	assert.Equal(t, int64(500), cfg.MinMileageUse)
	assert.Equal(t, []string{"https://admin.example"}, cfg.CORSOrigins)
}

func TestParseRejectsIncompleteConfig(t *testing.T) {
	cases := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"no database", []string{"-k", "s", "-tz", "UTC"}, nil},
		{"no secret", []string{"-d", "db", "-tz", "UTC"}, nil},
		{"bad timezone", []string{"-d", "db", "-k", "s", "-tz", "Mars/Olympus"}, nil},
		{"bad minimum", []string{"-d", "db", "-k", "s", "-tz", "UTC"}, map[string]string{"MIN_MILEAGE_USE": "lots"}},
		{"zero minimum", []string{"-d", "db", "-k", "s", "-tz", "UTC", "-min-mileage", "0"}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fs := flag.NewFlagSet("buzz", flag.ContinueOnError)
			_, err := parse(fs, c.args, env(c.env))
			assert.Error(t, err)
		})
	}
}
