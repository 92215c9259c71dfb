package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mlvnd/garminpull/internal/config"
	"github.com/mlvnd/garminpull/internal/export"
	"github.com/mlvnd/garminpull/internal/fetch"
	"github.com/mlvnd/garminpull/internal/garmin"
	"github.com/mlvnd/garminpull/internal/store"
)

var opts config.Options

var rootCmd = &cobra.Command{
	Use:   "garminpull",
	Short: "Bulk-export Garmin Connect health data to JSON files",
	Long: `garminpull authenticates with Garmin Connect, pulls per-day health
metrics and recent activities for a date range, and writes the results as
indented JSON files for later analysis.

Credentials come from GARMIN_EMAIL and GARMIN_PASSWORD (a .env file is
honored). Session tokens are cached under GARMINTOKENS (default
~/.garminconnect) so subsequent runs skip the login.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.StartDate, "start-date", "", "start date (YYYY-MM-DD)")
	f.StringVar(&opts.EndDate, "end-date", "", "end date (YYYY-MM-DD), defaults to today")
	f.IntVar(&opts.Days, "days", config.DefaultDays, "number of days to export when no start date is given")
	f.StringSliceVar(&opts.DataTypes, "data-types", defaultDataTypes(), "daily data types to export")
	f.BoolVar(&opts.Activities, "activities", false, "export recent activities as well")
	f.IntVar(&opts.ActivityLimit, "activity-limit", 10, "number of recent activities to export")
	f.BoolVar(&opts.ActivityDetails, "activity-details", false, "enrich each activity with splits, weather, HR zones and gear")
	f.StringVarP(&opts.OutputDir, "output", "o", export.DefaultDir, "output directory for export files")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	start, end, err := opts.DateRange(time.Now())
	if err != nil {
		return err
	}

	fmt.Println(mutedStyle.Render("connecting with token cache at " + cfg.TokenDir))
	client, err := garmin.Connect(ctx,
		garmin.Credentials{Email: cfg.Email, Password: cfg.Password},
		cfg.TokenDir,
		garmin.WithMFAPrompt(promptMFA),
		garmin.WithRestoreNotice(func(err error) {
			fmt.Println(mutedStyle.Render("stored session not usable (" + err.Error() + "); logging in with credentials"))
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to Garmin Connect: %w", err)
	}

	history := openHistory()
	if history != nil {
		defer history.Close()
	}

	writer := export.NewWriter(opts.OutputDir)

	cats := make([]fetch.Category, len(opts.DataTypes))
	for i, n := range opts.DataTypes {
		cats[i] = fetch.Category(n)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Exporting daily data %s to %s (%s)",
		start.Format("2006-01-02"), end.Format("2006-01-02"), strings.Join(opts.DataTypes, ", "))))

	rf := fetch.NewRangeFetcher(client, dailyProgress())
	result, err := rf.Fetch(ctx, start, end, cats)
	if err != nil {
		return fmt.Errorf("fetch date range: %w", err)
	}
	path, err := writer.Write(result, export.DailyFilename(start, end))
	if err != nil {
		return fmt.Errorf("export daily data: %w", err)
	}
	fmt.Println(successStyle.Render("exported " + path))
	recordRun(history, store.Run{
		ID:         result.Metadata.RunID,
		Kind:       store.KindDaily,
		StartDate:  result.Metadata.StartDate,
		EndDate:    result.Metadata.EndDate,
		Categories: opts.DataTypes,
		File:       path,
		ItemCount:  len(result.Data),
		ErrorCount: result.Errors,
	})

	if opts.Activities {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Exporting %d most recent activities", opts.ActivityLimit)))
		af := fetch.NewActivityFetcher(client)
		ares, aerr := af.Collect(ctx, opts.ActivityLimit, opts.ActivityDetails, activityProgress)
		if aerr != nil {
			warn("retrieve activities: " + aerr.Error())
		}
		apath, err := writer.Write(ares, export.ActivitiesFilename(time.Now()))
		if err != nil {
			return fmt.Errorf("export activities: %w", err)
		}
		fmt.Println(successStyle.Render("exported " + apath))
		recordRun(history, store.Run{
			ID:         ares.Metadata.RunID,
			Kind:       store.KindActivities,
			File:       apath,
			ItemCount:  ares.Metadata.Count,
			ErrorCount: ares.Errors,
		})
	}

	fmt.Println(successStyle.Render("Export complete"))
	return nil
}

func defaultDataTypes() []string {
	names := make([]string, len(fetch.DefaultCategories))
	for i, c := range fetch.DefaultCategories {
		names[i] = string(c)
	}
	return names
}

// dailyProgress prints one header per day and a ✓/✗ line per category.
func dailyProgress() fetch.Progress {
	var lastDate string
	return func(date string, cat fetch.Category, err error) {
		if date != lastDate {
			fmt.Println(mutedStyle.Render("processing " + date))
			lastDate = date
		}
		if err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf("  ✗ %s: %v", cat, err)))
			return
		}
		fmt.Println(successStyle.Render("  ✓ " + string(cat)))
	}
}

func activityProgress(idx, total int, a garmin.Activity, err error) {
	name := a.Name
	if name == "" {
		name = "Unknown"
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("processing activity %d/%d: %s", idx+1, total, name)))
	if err != nil {
		warn(err.Error())
	}
}

// openHistory opens the run-history database. History is bookkeeping only:
// a failure here warns and the export proceeds without it.
func openHistory() *store.Store {
	path, err := store.DefaultDBPath()
	if err == nil {
		var s *store.Store
		if s, err = store.New(path); err == nil {
			return s
		}
	}
	warn("open run history: " + err.Error())
	return nil
}

func recordRun(h *store.Store, r store.Run) {
	if h == nil {
		return
	}
	if _, err := h.RecordRun(r); err != nil {
		warn("record run history: " + err.Error())
	}
}

func warn(msg string) {
	fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+msg))
}

// promptMFA asks for the verification code when the login flow demands one.
func promptMFA() (string, error) {
	var code string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("MFA code").
				Description("Enter the verification code Garmin sent you").
				Value(&code),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
