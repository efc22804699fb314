package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application configuration
type Config struct {
	RunAddress         string
	DatabaseURI        string
	SalesSystemAddress string
	SecretKey          string
	Timezone           string
	SweepSchedule      string
	MinMileageUse      int64
	CORSOrigins        []string

	// Location is Timezone resolved
	Location *time.Location
}

// NewConfig loads an optional .env file, then flags, then environment
// overrides, the same precedence as the other services.
func NewConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	var (
		cfg     Config
		origins string
	)

	fs.StringVar(&cfg.RunAddress, "a", ":8080", "Server run address")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "Database URI; prefix with sqlite: for an embedded database")
	fs.StringVar(&cfg.SalesSystemAddress, "s", "", "Sales system address")
	fs.StringVar(&cfg.SecretKey, "k", "", "Secret for session and redemption tokens")
	fs.StringVar(&cfg.Timezone, "tz", "Asia/Seoul", "Business timezone for calendar dates")
	fs.StringVar(&cfg.SweepSchedule, "sweep", "@every 1m", "Expiry sweeper cron schedule")
	fs.Int64Var(&cfg.MinMileageUse, "min-mileage", 1000, "Minimum mileage per use request")
	fs.StringVar(&origins, "cors", "http://localhost:3000,http://localhost:5173", "Comma separated CORS origins")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override with env vars if present
	if v := getenv("RUN_ADDRESS"); v != "" {
		cfg.RunAddress = v
	}
	if v := getenv("DATABASE_URI"); v != "" {
		cfg.DatabaseURI = v
	}
	if v := getenv("SALES_SYSTEM_ADDRESS"); v != "" {
		cfg.SalesSystemAddress = v
	}
	if v := getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := getenv("SWEEP_SCHEDULE"); v != "" {
		cfg.SweepSchedule = v
	}
	if v := getenv("MIN_MILEAGE_USE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MIN_MILEAGE_USE: %w", err)
		}
		cfg.MinMileageUse = n
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		origins = v
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.DatabaseURI == "" {
		return nil, errors.New("database URI is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}
	if cfg.MinMileageUse < 1 {
		return nil, fmt.Errorf("minimum mileage use must be positive, got %d", cfg.MinMileageUse)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return &cfg, nil
}
