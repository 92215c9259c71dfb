package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func decodeToken(body string, tok *OAuth2Token) error {
	return json.Unmarshal([]byte(body), tok)
}

// getJSON performs one authenticated GET and returns the body verbatim.
// Payloads are opaque to this program: stored or reported, never interpreted.
func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("garmin request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Path: path}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// The service occasionally answers 200 with an empty or HTML body
	// (maintenance pages). Reject those here so callers record the failure
	// instead of embedding an unmarshalable payload in an export artifact.
	if !json.Valid(body) {
		return nil, fmt.Errorf("garmin: %s returned a non-JSON body", path)
	}
	return json.RawMessage(body), nil
}

// UserSummary is the per-day wellness summary.
func (c *Client) UserSummary(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/usersummary-service/usersummary/daily/%s?calendarDate=%s", c.displayName, date))
}

// DailyStats is served from the same endpoint as the user summary; Connect
// exposes no separate stats document.
func (c *Client) DailyStats(ctx context.Context, date string) (json.RawMessage, error) {
	return c.UserSummary(ctx, date)
}

func (c *Client) Steps(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/wellness-service/wellness/dailySummaryChart/%s?date=%s", c.displayName, date))
}

func (c *Client) HeartRate(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/wellness-service/wellness/dailyHeartRate/%s?date=%s", c.displayName, date))
}

func (c *Client) Sleep(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/wellness-service/wellness/dailySleepData/%s?date=%s&nonSleepBufferMinutes=60", c.displayName, date))
}

func (c *Client) BodyComposition(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/weight-service/weight/dateRange?startDate=%s&endDate=%s", date, date))
}

func (c *Client) Hydration(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/usersummary-service/usersummary/hydration/daily/"+date)
}

func (c *Client) Respiration(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/wellness-service/wellness/daily/respiration/"+date)
}

func (c *Client) SpO2(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/wellness-service/wellness/daily/spo2/"+date)
}

func (c *Client) Stress(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/wellness-service/wellness/dailyStress/"+date)
}

// PersonalRecords is account-wide, not per-day.
func (c *Client) PersonalRecords(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/personalrecord-service/personalrecord/prs/"+c.displayName)
}

func (c *Client) RestingHeartRate(ctx context.Context, date string) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/userstats-service/wellness/daily/%s?fromDate=%s&untilDate=%s&metricId=60", c.displayName, date, date))
}

// Activity is one logged activity summary. The full payload is preserved
// verbatim; only the identifier and display name are peeked at.
type Activity struct {
	ID   int64
	Name string
	Raw  json.RawMessage
}

func (a Activity) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return json.Marshal(map[string]any{"activityId": a.ID, "activityName": a.Name})
}

// Activities retrieves one page of recent activity summaries. Pagination is
// the service's: start is a zero-based offset into the reverse-chronological
// list.
func (c *Client) Activities(ctx context.Context, limit, start int) ([]Activity, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("/activitylist-service/activities/search/activities?start=%d&limit=%d", start, limit))
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	acts := make([]Activity, 0, len(items))
	for _, item := range items {
		var head struct {
			ID   int64  `json:"activityId"`
			Name string `json:"activityName"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		acts = append(acts, Activity{ID: head.ID, Name: head.Name, Raw: item})
	}
	return acts, nil
}

func (c *Client) ActivityEvaluation(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d", id))
}

func (c *Client) ActivitySplits(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/splits", id))
}

func (c *Client) ActivitySplitSummaries(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/split_summaries", id))
}

func (c *Client) ActivityWeather(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/weather", id))
}

func (c *Client) ActivityHRZones(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/activity-service/activity/%d/hrTimeInZones", id))
}

func (c *Client) ActivityGear(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.getJSON(ctx, fmt.Sprintf("/gear-service/gear/filterGear?activityId=%d", id))
}
