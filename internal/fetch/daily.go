package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mlvnd/garminpull/internal/garmin"
)

// Category names one kind of per-day health metric.
type Category string

const (
	CategoryStats            Category = "stats"
	CategorySteps            Category = "steps"
	CategoryHeartRate        Category = "heart_rate"
	CategorySleep            Category = "sleep"
	CategoryBodyComposition  Category = "body_composition"
	CategoryHydration        Category = "hydration"
	CategoryRespiration      Category = "respiration"
	CategorySpO2             Category = "spo2"
	CategoryStress           Category = "stress"
	CategoryUserSummary      Category = "user_summary"
	CategoryPersonalRecord   Category = "personal_record"
	CategoryRestingHeartRate Category = "resting-heart-rate"
)

// DefaultCategories is the selection used when the caller names none.
var DefaultCategories = []Category{CategoryStats, CategorySteps, CategoryHeartRate, CategorySleep}

// DailyAPI is the slice of the Garmin client the range fetcher needs.
type DailyAPI interface {
	DailyStats(ctx context.Context, date string) (json.RawMessage, error)
	Steps(ctx context.Context, date string) (json.RawMessage, error)
	HeartRate(ctx context.Context, date string) (json.RawMessage, error)
	Sleep(ctx context.Context, date string) (json.RawMessage, error)
	BodyComposition(ctx context.Context, date string) (json.RawMessage, error)
	Hydration(ctx context.Context, date string) (json.RawMessage, error)
	Respiration(ctx context.Context, date string) (json.RawMessage, error)
	SpO2(ctx context.Context, date string) (json.RawMessage, error)
	Stress(ctx context.Context, date string) (json.RawMessage, error)
	UserSummary(ctx context.Context, date string) (json.RawMessage, error)
	PersonalRecords(ctx context.Context) (json.RawMessage, error)
	RestingHeartRate(ctx context.Context, date string) (json.RawMessage, error)
}

type fetchFunc func(ctx context.Context, date string) (json.RawMessage, error)

// Progress is invoked after every category attempt; err is nil on success.
// Reporting is the caller's concern, the fetcher never prints.
type Progress func(date string, category Category, err error)

// Metadata is the header of a daily export artifact.
type Metadata struct {
	RunID       string   `json:"run_id"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	ExtractedAt string   `json:"extraction_date"`
	Categories  []string `json:"data_types"`
}

// DayRecord maps a category name to the raw payload for one day, or to an
// {"error": ...} placeholder when that fetch failed.
type DayRecord map[string]json.RawMessage

type RangeResult struct {
	Metadata Metadata             `json:"metadata"`
	Data     map[string]DayRecord `json:"data"`

	// Errors counts recorded placeholders; not part of the artifact.
	Errors int `json:"-"`
}

const dateLayout = "2006-01-02"

// RangeFetcher retrieves the requested categories for every day of a range.
// The category dispatch table is built once at construction so the supported
// set is introspectable data rather than a conditional chain.
type RangeFetcher struct {
	registry map[Category]fetchFunc
	progress Progress
}

func NewRangeFetcher(api DailyAPI, progress Progress) *RangeFetcher {
	return &RangeFetcher{
		registry: map[Category]fetchFunc{
			CategoryStats:           api.DailyStats,
			CategorySteps:           api.Steps,
			CategoryHeartRate:       api.HeartRate,
			CategorySleep:           api.Sleep,
			CategoryBodyComposition: api.BodyComposition,
			CategoryHydration:       api.Hydration,
			CategoryRespiration:     api.Respiration,
			CategorySpO2:            api.SpO2,
			CategoryStress:          api.Stress,
			CategoryUserSummary:     api.UserSummary,
			CategoryPersonalRecord: func(ctx context.Context, _ string) (json.RawMessage, error) {
				return api.PersonalRecords(ctx)
			},
			CategoryRestingHeartRate: api.RestingHeartRate,
		},
		progress: progress,
	}
}

// Supported returns the fixed category set, sorted by name.
func (f *RangeFetcher) Supported() []Category {
	cats := make([]Category, 0, len(f.registry))
	for c := range f.registry {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Fetch walks every calendar day from start to end inclusive, ascending, and
// attempts each requested category independently. A failed category is
// recorded as a placeholder and never aborts the day or the range; only a
// rejected session escalates. Unknown category names are skipped silently.
// An inverted range yields an empty collection.
func (f *RangeFetcher) Fetch(ctx context.Context, start, end time.Time, categories []Category) (*RangeResult, error) {
	res := &RangeResult{
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			StartDate:   start.Format(dateLayout),
			EndDate:     end.Format(dateLayout),
			ExtractedAt: time.Now().Format(time.RFC3339),
			Categories:  categoryNames(categories),
		},
		Data: map[string]DayRecord{},
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		record := DayRecord{}
		for _, cat := range categories {
			fn, ok := f.registry[cat]
			if !ok {
				continue
			}
			payload, err := fn(ctx, date)
			if f.progress != nil {
				f.progress(date, cat, err)
			}
			if err != nil {
				if errors.Is(err, garmin.ErrSessionExpired) {
					return nil, err
				}
				record[string(cat)] = errorPlaceholder(err)
				res.Errors++
				continue
			}
			record[string(cat)] = payload
		}
		res.Data[date] = record
	}
	return res, nil
}

func errorPlaceholder(err error) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return raw
}

func categoryNames(cats []Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}
