package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/detect"
	"github.com/driftwatch/driftwatch/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())
	store, err := storage.NewStore(db, 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func recordVisit(t *testing.T, store *storage.Store, hostname string, closedAt time.Time, seconds int, distracted bool) {
	t.Helper()
	v := &storage.Visit{
		StartedAt: closedAt.Add(-time.Duration(seconds) * time.Second),
		ClosedAt:  closedAt,
		URL:       "https://" + hostname,
		Hostname:  hostname,
		Classification: classify.Classification{
			Topic: hostname, Category: classify.CategoryOther,
			Difficulty: classify.DifficultyMedium, IsDistraction: distracted,
		},
		DurationSeconds: seconds,
	}
	if distracted {
		v.Verdict = &detect.Verdict{IsDistraction: true, Type: detect.TypeKnownDistraction, Confidence: detect.ConfidenceKnown}
	}
	require.NoError(t, store.CloseVisit(context.Background(), v))
}

// --- Score ---

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		productive int
		expected   int
	}{
		{"empty day is fully productive", 0, 0, 100},
		{"three quarters", 400, 300, 75},
		{"rounds up", 3, 2, 67},
		{"rounds down", 6, 2, 33},
		{"all distracted", 100, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stats := &storage.DayStats{
				TotalSeconds:       tc.total,
				ProductiveSeconds:  tc.productive,
				DistractionSeconds: tc.total - tc.productive,
			}
			assert.Equal(t, tc.expected, Score(stats))
		})
	}
}

// --- PeakHours ---

func TestPeakHours_TopThreeByCount(t *testing.T) {
	var hourly [24]int
	hourly[9] = 2
	hourly[14] = 5
	hourly[16] = 3
	hourly[20] = 1

	assert.Equal(t, []int{14, 16, 9}, PeakHours(hourly))
}

func TestPeakHours_TiesBreakEarlier(t *testing.T) {
	var hourly [24]int
	hourly[8] = 2
	hourly[15] = 2
	hourly[22] = 2
	hourly[23] = 2

	assert.Equal(t, []int{8, 15, 22}, PeakHours(hourly))
}

func TestPeakHours_EmptyDay(t *testing.T) {
	assert.Empty(t, PeakHours([24]int{}))
}

// --- Snapshot ---

func TestSnapshot_FullDay(t *testing.T) {
	store := openTestStore(t)
	reader := NewReader(store)
	ctx := context.Background()

	closedAt := time.Date(2026, 3, 14, 14, 30, 0, 0, time.Local)
	day := storage.DayKey(closedAt)

	recordVisit(t, store, "github.com", closedAt, 300, false)
	recordVisit(t, store, "youtube.com", closedAt.Add(time.Minute), 60, true)
	recordVisit(t, store, "youtube.com", closedAt.Add(2*time.Minute), 30, true)
	recordVisit(t, store, "reddit.com", closedAt.Add(3*time.Minute), 10, true)

	snap, err := reader.Snapshot(ctx, day, nil)
	require.NoError(t, err)

	assert.Equal(t, day, snap.Date)
	assert.Equal(t, 400, snap.TotalTime)
	assert.Equal(t, 300, snap.ProductiveTime)
	assert.Equal(t, 100, snap.DistractionTime)
	assert.Equal(t, 3, snap.DistractionCount)
	assert.Equal(t, 75, snap.ProductivityScore)
	assert.Equal(t, []int{14}, snap.PeakHours)
	require.Len(t, snap.TopDistractions, 2)
	assert.Equal(t, storage.SiteCount{Hostname: "youtube.com", Count: 2}, snap.TopDistractions[0])
	assert.Equal(t, storage.SiteCount{Hostname: "reddit.com", Count: 1}, snap.TopDistractions[1])
	assert.Nil(t, snap.CurrentFocus)
}

func TestSnapshot_EmptyDay(t *testing.T) {
	store := openTestStore(t)
	reader := NewReader(store)

	snap, err := reader.Snapshot(context.Background(), "2026-01-01", nil)
	require.NoError(t, err)

	assert.Equal(t, 100, snap.ProductivityScore)
	assert.Zero(t, snap.TotalTime)
	assert.Empty(t, snap.PeakHours)
	assert.Empty(t, snap.TopDistractions)
}

func TestSnapshot_CarriesFocus(t *testing.T) {
	store := openTestStore(t)
	reader := NewReader(store)

	focus := &Focus{Topic: "Code review", Difficulty: classify.DifficultyMedium, ElapsedSeconds: 42}
	snap, err := reader.Snapshot(context.Background(), "2026-01-01", focus)
	require.NoError(t, err)
	assert.Equal(t, focus, snap.CurrentFocus)
}

// --- ElapsedFocus ---

func TestElapsedFocus(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	focus := ElapsedFocus("Code review", classify.DifficultyHard, start, start.Add(90*time.Second))
	assert.Equal(t, 90, focus.ElapsedSeconds)
	assert.Equal(t, "Code review", focus.Topic)

	// A clock that runs backwards never reports negative elapsed time.
	focus = ElapsedFocus("x", "easy", start, start.Add(-time.Minute))
	assert.Zero(t, focus.ElapsedSeconds)
}
