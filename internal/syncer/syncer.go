// Package syncer talks to the team-dashboard backend. Local tracking never
// depends on it: every call failure is logged and dropped.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftwatch/driftwatch/internal/detect"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// APIError wraps a non-2xx backend response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is the backend sync client for one user.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Client. baseURL has no trailing slash.
func New(baseURL, userID string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		userID:     userID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// DailyStatsPayload matches the backend's expected stats shape.
type DailyStatsPayload struct {
	TotalTime          int            `json:"totalTime"`
	ProductiveTime     int            `json:"productiveTime"`
	DistractionTime    int            `json:"distractionTime"`
	DistractionCount   int            `json:"distractionCount"`
	HourlyDistractions [24]int        `json:"hourlyDistractions"`
	CommonDistractions map[string]int `json:"commonDistractions"`
}

// StatsPayload assembles the sync payload for a day from storage.
func StatsPayload(stats *storage.DayStats, sites map[string]int) DailyStatsPayload {
	if sites == nil {
		sites = map[string]int{}
	}
	return DailyStatsPayload{
		TotalTime:          stats.TotalSeconds,
		ProductiveTime:     stats.ProductiveSeconds,
		DistractionTime:    stats.DistractionSeconds,
		DistractionCount:   stats.DistractionCount,
		HourlyDistractions: stats.Hourly,
		CommonDistractions: sites,
	}
}

// UserStat is one team member's aggregate on the dashboard.
type UserStat struct {
	Name             string `json:"name"`
	Productivity     int    `json:"productivity"`
	DistractionCount int    `json:"distractionCount"`
}

// TeamDashboard is the backend's team-wide aggregate.
type TeamDashboard struct {
	TotalUsers          int                 `json:"totalUsers"`
	AverageProductivity int                 `json:"averageProductivity"`
	UserStats           map[string]UserStat `json:"userStats"`
	TeamDistractions    []storage.SiteCount `json:"teamDistractions"`
}

// RegisterUser announces this user to the backend. Called once, on first
// run.
func (c *Client) RegisterUser(ctx context.Context, name string) error {
	return c.post(ctx, "/api/register-user", map[string]interface{}{
		"userId": c.userID,
		"name":   name,
	})
}

// TrackDistraction pushes one detected distraction, best-effort.
func (c *Client) TrackDistraction(ctx context.Context, v detect.Verdict, at time.Time) error {
	return c.post(ctx, "/api/track-distraction", map[string]interface{}{
		"userId":      c.userID,
		"distraction": v,
		"timestamp":   at.UnixMilli(),
	})
}

// SaveAnalytics upserts one day's stats; the backend keeps the last write
// per (user, date).
func (c *Client) SaveAnalytics(ctx context.Context, date string, stats DailyStatsPayload) error {
	return c.post(ctx, "/api/save-analytics", map[string]interface{}{
		"userId": c.userID,
		"date":   date,
		"stats":  stats,
	})
}

// TeamDashboard fetches the team-wide aggregate view.
func (c *Client) TeamDashboard(ctx context.Context) (*TeamDashboard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/team-dashboard", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch team dashboard: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var dashboard TeamDashboard
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		return nil, fmt.Errorf("parse team dashboard: %w", err)
	}
	return &dashboard, nil
}

// UserID returns the user this client syncs as.
func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}
