// Package analytics derives display-ready snapshots from the daily
// aggregates. Reads only; all numbers come from storage plus the optional
// in-progress visit.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/driftwatch/driftwatch/internal/storage"
)

const (
	maxPeakHours       = 3
	maxTopDistractions = 5
)

// Focus describes the currently open visit.
type Focus struct {
	Topic          string `json:"topic"`
	Difficulty     string `json:"difficulty"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
}

// Snapshot is the display-ready view of one day.
type Snapshot struct {
	Date              string              `json:"date"`
	ProductivityScore int                 `json:"productivityScore"`
	TotalTime         int                 `json:"totalTime"`
	ProductiveTime    int                 `json:"productiveTime"`
	DistractionTime   int                 `json:"distractionTime"`
	DistractionCount  int                 `json:"distractionCount"`
	PeakHours         []int               `json:"peakHours"`
	TopDistractions   []storage.SiteCount `json:"topDistractions"`
	CurrentFocus      *Focus              `json:"currentFocus,omitempty"`
}

// Reader computes snapshots over a store.
type Reader struct {
	store *storage.Store
}

// NewReader wraps a store.
func NewReader(store *storage.Store) *Reader {
	return &Reader{store: store}
}

// Snapshot builds the view for a day. focus may be nil when no visit is
// open. A day with no recorded time scores 100 (fully productive).
func (r *Reader) Snapshot(ctx context.Context, date string, focus *Focus) (*Snapshot, error) {
	stats, err := r.store.DayStats(ctx, date)
	if err != nil {
		return nil, err
	}

	top, err := r.store.TopSites(ctx, date, maxTopDistractions)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Date:              date,
		ProductivityScore: Score(stats),
		TotalTime:         stats.TotalSeconds,
		ProductiveTime:    stats.ProductiveSeconds,
		DistractionTime:   stats.DistractionSeconds,
		DistractionCount:  stats.DistractionCount,
		PeakHours:         PeakHours(stats.Hourly),
		TopDistractions:   top,
		CurrentFocus:      focus,
	}, nil
}

// Score is the productivity percentage for a day: the productive share of
// recorded time, rounded, or 100 when nothing has been recorded.
func Score(stats *storage.DayStats) int {
	if stats.TotalSeconds <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(stats.ProductiveSeconds) / float64(stats.TotalSeconds)))
}

// PeakHours returns up to three hours of day with the most distractions.
// Zero-count hours are excluded; ties break toward the earlier hour.
func PeakHours(hourly [24]int) []int {
	type hourCount struct{ hour, count int }

	var counts []hourCount
	for hour, count := range hourly {
		if count > 0 {
			counts = append(counts, hourCount{hour, count})
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].hour < counts[j].hour
	})

	if len(counts) > maxPeakHours {
		counts = counts[:maxPeakHours]
	}

	hours := []int{}
	for _, hc := range counts {
		hours = append(hours, hc.hour)
	}
	return hours
}

// ElapsedFocus converts an open visit into a Focus at the given time.
func ElapsedFocus(topic, difficulty string, startedAt, now time.Time) *Focus {
	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return &Focus{Topic: topic, Difficulty: difficulty, ElapsedSeconds: elapsed}
}
