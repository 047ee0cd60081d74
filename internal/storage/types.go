package storage

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/detect"
)

// Visit is one closed browsing interval. Verdict is nil for the first visit
// of a session (there was no predecessor to compare against).
type Visit struct {
	ID              int64
	StartedAt       time.Time
	ClosedAt        time.Time
	URL             string
	Title           string
	Hostname        string
	Classification  classify.Classification
	Verdict         *detect.Verdict
	DurationSeconds int
}

// DayStats is the running aggregate for one calendar day, keyed by the local
// date (YYYY-MM-DD) at which visits closed. The invariant
// TotalSeconds == ProductiveSeconds + DistractionSeconds always holds.
type DayStats struct {
	Date               string  `json:"date"`
	TotalSeconds       int     `json:"totalTime"`
	ProductiveSeconds  int     `json:"productiveTime"`
	DistractionSeconds int     `json:"distractionTime"`
	DistractionCount   int     `json:"distractionCount"`
	Hourly             [24]int `json:"hourlyDistractions"`
}

// SiteCount pairs a hostname with how often it distracted.
type SiteCount struct {
	Hostname string `json:"site"`
	Count    int    `json:"count"`
}

// PomodoroSession is one completed focus or break interval.
type PomodoroSession struct {
	ID        int64
	StartedAt time.Time
	Kind      string // "work", "short_break", "long_break"
	Completed bool
}

// Settings keys.
const (
	SettingTrackingEnabled = "tracking_enabled"
	SettingUserID          = "user_id"
)

// DayKey formats a timestamp as the local calendar-day key.
func DayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
