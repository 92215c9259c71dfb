package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlvnd/garminpull/internal/garmin"
)

// ActivityAPI is the slice of the Garmin client the activity fetcher needs.
type ActivityAPI interface {
	Activities(ctx context.Context, limit, start int) ([]garmin.Activity, error)
	ActivityEvaluation(ctx context.Context, id int64) (json.RawMessage, error)
	ActivitySplits(ctx context.Context, id int64) (json.RawMessage, error)
	ActivitySplitSummaries(ctx context.Context, id int64) (json.RawMessage, error)
	ActivityWeather(ctx context.Context, id int64) (json.RawMessage, error)
	ActivityHRZones(ctx context.Context, id int64) (json.RawMessage, error)
	ActivityGear(ctx context.Context, id int64) (json.RawMessage, error)
}

// Section is the outcome of one best-effort enrichment. An absent section
// marshals as null so the artifact keeps the same shape either way; Err keeps
// the diagnostic inspectable instead of discarded.
type Section struct {
	Present bool
	Data    json.RawMessage
	Err     string
}

func (s Section) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte("null"), nil
	}
	return s.Data, nil
}

// ActivityDetails bundles the evaluation record with its five independently
// fetched enrichments.
type ActivityDetails struct {
	Evaluation     json.RawMessage `json:"basic_info"`
	Splits         Section         `json:"splits"`
	SplitSummaries Section         `json:"split_summaries"`
	Weather        Section         `json:"weather"`
	HRZones        Section         `json:"hr_zones"`
	Gear           Section         `json:"gear"`
}

type ActivityRecord struct {
	Summary garmin.Activity  `json:"summary"`
	Details *ActivityDetails `json:"details"`
}

type ActivityMetadata struct {
	RunID       string `json:"run_id"`
	ExtractedAt string `json:"extraction_date"`
	Count       int    `json:"activity_count"`
}

type ActivityResult struct {
	Metadata   ActivityMetadata `json:"metadata"`
	Activities []ActivityRecord `json:"activities"`

	// Errors counts activities whose detail bundle could not be fetched.
	Errors int `json:"-"`
}

// ActivityProgress is invoked once per processed activity; err is the detail
// failure, if any.
type ActivityProgress func(idx, total int, a garmin.Activity, err error)

type ActivityFetcher struct {
	api ActivityAPI
}

func NewActivityFetcher(api ActivityAPI) *ActivityFetcher {
	return &ActivityFetcher{api: api}
}

// Page retrieves one page of recent activity summaries.
func (f *ActivityFetcher) Page(ctx context.Context, limit, offset int) ([]garmin.Activity, error) {
	return f.api.Activities(ctx, limit, offset)
}

// Details fetches the evaluation record for one activity plus five
// independent best-effort enrichments. An evaluation failure degrades the
// whole bundle; an enrichment failure only leaves its section absent.
func (f *ActivityFetcher) Details(ctx context.Context, id int64) (*ActivityDetails, error) {
	eval, err := f.api.ActivityEvaluation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("activity %d evaluation: %w", id, err)
	}
	return &ActivityDetails{
		Evaluation:     eval,
		Splits:         section(ctx, id, f.api.ActivitySplits),
		SplitSummaries: section(ctx, id, f.api.ActivitySplitSummaries),
		Weather:        section(ctx, id, f.api.ActivityWeather),
		HRZones:        section(ctx, id, f.api.ActivityHRZones),
		Gear:           section(ctx, id, f.api.ActivityGear),
	}, nil
}

func section(ctx context.Context, id int64, fn func(context.Context, int64) (json.RawMessage, error)) Section {
	data, err := fn(ctx, id)
	if err != nil {
		return Section{Err: err.Error()}
	}
	return Section{Present: true, Data: data}
}

// Collect assembles one activity export: a single page of summaries, each
// optionally enriched with details. Activity retrieval is an optional
// enhancement of the run, so a listing failure yields the empty collection
// with the error returned for reporting; the caller can still export it.
func (f *ActivityFetcher) Collect(ctx context.Context, limit int, withDetails bool, progress ActivityProgress) (*ActivityResult, error) {
	res := &ActivityResult{
		Metadata: ActivityMetadata{
			RunID:       uuid.NewString(),
			ExtractedAt: time.Now().Format(time.RFC3339),
		},
		Activities: []ActivityRecord{},
	}

	acts, err := f.Page(ctx, limit, 0)
	if err != nil {
		return res, err
	}
	res.Metadata.Count = len(acts)

	for i, a := range acts {
		rec := ActivityRecord{Summary: a}
		var derr error
		if withDetails {
			var d *ActivityDetails
			d, derr = f.Details(ctx, a.ID)
			if derr != nil {
				res.Errors++
			} else {
				rec.Details = d
			}
		}
		if progress != nil {
			progress(i, len(acts), a, derr)
		}
		res.Activities = append(res.Activities, rec)
	}
	return res, nil
}
