package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDays is the relative window used when no explicit start date is
// given.
const DefaultDays = 7

// Config holds credentials and paths sourced from the process environment.
// Credentials live in memory only and are never persisted.
type Config struct {
	Email    string
	Password string
	TokenDir string
}

// Load reads a .env file if present, then resolves GARMIN_EMAIL,
// GARMIN_PASSWORD and the optional GARMINTOKENS cache-dir override. Missing
// credentials are a fatal configuration error, reported before any network
// activity.
func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GARMIN")
	v.BindEnv("email")
	v.BindEnv("password")
	v.BindEnv("tokens", "GARMINTOKENS")
	v.SetDefault("tokens", "~/.garminconnect")

	cfg := &Config{
		Email:    v.GetString("email"),
		Password: v.GetString("password"),
		TokenDir: expandHome(v.GetString("tokens")),
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, errors.New("GARMIN_EMAIL and GARMIN_PASSWORD must be set in the environment (e.g. via .env)")
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Options is the flag surface of one run.
type Options struct {
	StartDate       string
	EndDate         string
	Days            int
	DataTypes       []string
	Activities      bool
	ActivityLimit   int
	ActivityDetails bool
	OutputDir       string
}

// DateRange resolves the effective inclusive range: the explicit end date or
// today, and the explicit start date or end-(days-1). An inverted pair is
// not validated here; it simply yields an empty iteration downstream.
func (o Options) DateRange(now time.Time) (start, end time.Time, err error) {
	end = midnight(now)
	if o.EndDate != "" {
		end, err = ParseDate(o.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse end date: %w", err)
		}
	}

	days := o.Days
	if days <= 0 {
		days = DefaultDays
	}
	start = end.AddDate(0, 0, -(days - 1))
	if o.StartDate != "" {
		start, err = ParseDate(o.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse start date: %w", err)
		}
	}
	return start, end, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
}

// ParseDate accepts the handful of date spellings the flags allow and
// normalizes to a calendar date with no time component.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
