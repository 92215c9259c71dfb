package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// ============================================================
// Date parsing
// ============================================================

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"iso", "2026-03-05", "2026-03-05", false},
		{"slashes", "2026/03/05", "2026-03-05", false},
		{"us style", "03/05/2026", "2026-03-05", false},
		{"named month", "Mar 5, 2026", "2026-03-05", false},
		{"long month", "March 5, 2026", "2026-03-05", false},
		{"with whitespace", "  2026-03-05 ", "2026-03-05", false},
		{"garbage", "not a date", "", true},
		{"empty", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("ParseDate(%q) = %v, want %s", tc.input, got, tc.want)
			}
			if h, m, s := got.Clock(); h+m+s != 0 {
				t.Fatal("parsed date should have no time component")
			}
		})
	}
}

// ============================================================
// Range resolution
// ============================================================

func TestDateRangeDefaults(t *testing.T) {
	now := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)

	start, end, err := Options{}.DateRange(now)
	if err != nil {
		t.Fatal(err)
	}
	if !end.Equal(date(t, "2026-08-26")) {
		t.Fatalf("end should be today, got %v", end)
	}
	if !start.Equal(date(t, "2026-08-20")) {
		t.Fatalf("start should be 6 days before end, got %v", start)
	}
}

func TestDateRangeExplicitEnd(t *testing.T) {
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	start, end, err := Options{EndDate: "2026-01-10", Days: 3}.DateRange(now)
	if err != nil {
		t.Fatal(err)
	}
	if !end.Equal(date(t, "2026-01-10")) || !start.Equal(date(t, "2026-01-08")) {
		t.Fatalf("got %v..%v", start, end)
	}
}

func TestDateRangeExplicitBoth(t *testing.T) {
	start, end, err := Options{StartDate: "2026-01-01", EndDate: "2026-01-31", Days: 3}.DateRange(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	// An explicit start wins over the relative window.
	if !start.Equal(date(t, "2026-01-01")) || !end.Equal(date(t, "2026-01-31")) {
		t.Fatalf("got %v..%v", start, end)
	}
}

func TestDateRangeZeroDaysUsesDefault(t *testing.T) {
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	start, _, err := Options{Days: 0}.DateRange(now)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(date(t, "2026-08-20")) {
		t.Fatalf("zero days should fall back to %d, start %v", DefaultDays, start)
	}
}

func TestDateRangeBadDates(t *testing.T) {
	if _, _, err := (Options{EndDate: "soon"}).DateRange(time.Now()); err == nil {
		t.Fatal("expected error for bad end date")
	}
	if _, _, err := (Options{StartDate: "yesterday-ish"}).DateRange(time.Now()); err == nil {
		t.Fatal("expected error for bad start date")
	}
}

// ============================================================
// Environment
// ============================================================

func TestLoad(t *testing.T) {
	t.Setenv("GARMIN_EMAIL", "user@example.com")
	t.Setenv("GARMIN_PASSWORD", "hunter2")
	t.Setenv("GARMINTOKENS", "/tmp/garmin-tokens")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Email != "user@example.com" || cfg.Password != "hunter2" {
		t.Fatalf("credentials mangled: %+v", cfg)
	}
	if cfg.TokenDir != "/tmp/garmin-tokens" {
		t.Fatalf("token dir = %q", cfg.TokenDir)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("GARMIN_EMAIL", "")
	t.Setenv("GARMIN_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when credentials are absent")
	}
}

func TestLoadDefaultTokenDir(t *testing.T) {
	t.Setenv("GARMIN_EMAIL", "user@example.com")
	t.Setenv("GARMIN_PASSWORD", "hunter2")
	t.Setenv("GARMINTOKENS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TokenDir != filepath.Join(home, ".garminconnect") {
		t.Fatalf("token dir = %q", cfg.TokenDir)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/tokens", filepath.Join(home, "tokens")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~user/tokens", "~user/tokens"},
	}

	for _, tc := range tests {
		if got := expandHome(tc.input); got != tc.want {
			t.Errorf("expandHome(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
