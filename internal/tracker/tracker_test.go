package tracker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/detect"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// staticCompleter always answers with the same model response.
type staticCompleter struct {
	response string
}

func (s *staticCompleter) Complete(context.Context, string) (string, error) {
	return s.response, nil
}

func noText(context.Context) (string, error) { return "", nil }

// newTestTracker builds a Tracker over an in-memory store with a canned
// model response.
func newTestTracker(t *testing.T, response string) (*Tracker, *storage.Store) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())
	store, err := storage.NewStore(db, 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cache := classify.NewCache(store, 0)
	classifier := classify.NewClassifier(cache, &staticCompleter{response: response}, 0, zerolog.Nop())

	trk, err := New(context.Background(), store, classifier, zerolog.Nop())
	require.NoError(t, err)
	return trk, store
}

// --- tracking gate ---

func TestHandleVisit_DisabledRecordsNothing(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()

	verdict, err := trk.HandleVisit(ctx, "https://github.com/pulls", "Pulls", noText)
	require.NoError(t, err)
	assert.Nil(t, verdict)

	_, _, _, ok := trk.CurrentVisit()
	assert.False(t, ok, "no visit opens while tracking is off")

	n, err := store.HistoryCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleVisit_RestrictedURLIgnored(t *testing.T) {
	trk, _ := newTestTracker(t, "{}")
	ctx := context.Background()
	require.NoError(t, trk.SetTracking(ctx, true))

	for _, url := range []string{
		"chrome://settings",
		"edge://flags",
		"about:blank",
		"chrome-extension://abcdef/popup.html",
	} {
		verdict, err := trk.HandleVisit(ctx, url, "", noText)
		require.NoError(t, err)
		assert.Nil(t, verdict, "restricted URL %s", url)
	}

	_, _, _, ok := trk.CurrentVisit()
	assert.False(t, ok)
}

func TestSetTracking_Persists(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()

	assert.False(t, trk.Enabled())
	require.NoError(t, trk.SetTracking(ctx, true))
	assert.True(t, trk.Enabled())

	persisted, err := store.TrackingEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, persisted)
}

// --- session flow ---

func TestHandleVisit_SessionFlow(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()
	require.NoError(t, trk.SetTracking(ctx, true))

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	clock := t0
	trk.SetClock(func() time.Time { return clock })

	// First visit of the session: no predecessor, no verdict.
	verdict, err := trk.HandleVisit(ctx, "https://www.youtube.com/watch?v=abc", "Cat videos", noText)
	require.NoError(t, err)
	assert.Nil(t, verdict)

	topic, difficulty, startedAt, ok := trk.CurrentVisit()
	require.True(t, ok)
	assert.Equal(t, "Cat videos", topic)
	assert.Equal(t, classify.DifficultyEasy, difficulty)
	assert.Equal(t, t0, startedAt)

	// Second visit closes the first with its elapsed duration.
	clock = t0.Add(2 * time.Minute)
	verdict, err = trk.HandleVisit(ctx, "https://github.com/pulls", "Pull requests", noText)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.False(t, verdict.IsDistraction, "entertainment to work is not a lapse")

	visits, err := store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "youtube.com", visits[0].Hostname)
	assert.Equal(t, 120, visits[0].DurationSeconds)
	assert.Nil(t, visits[0].Verdict, "first visit of a session has no verdict")

	// Shutdown flushes the open visit.
	clock = t0.Add(5 * time.Minute)
	require.NoError(t, trk.EndSession(ctx))

	visits, err = store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "github.com", visits[0].Hostname)
	assert.Equal(t, 180, visits[0].DurationSeconds)

	stats, err := store.DayStats(ctx, storage.DayKey(t0))
	require.NoError(t, err)
	assert.Equal(t, 300, stats.TotalSeconds)
	assert.Equal(t, stats.TotalSeconds, stats.ProductiveSeconds+stats.DistractionSeconds)

	_, _, _, ok = trk.CurrentVisit()
	assert.False(t, ok, "EndSession clears the open visit")
}

func TestHandleVisit_DetectsDistraction(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()
	require.NoError(t, trk.SetTracking(ctx, true))

	t0 := time.Date(2026, 3, 14, 14, 0, 0, 0, time.Local)
	clock := t0
	trk.SetClock(func() time.Time { return clock })

	fired := make(chan detect.Verdict, 1)
	trk.OnDistraction(func(v detect.Verdict, _ time.Time) { fired <- v })

	_, err := trk.HandleVisit(ctx, "https://github.com/pulls", "Pull requests", noText)
	require.NoError(t, err)

	clock = t0.Add(10 * time.Minute)
	verdict, err := trk.HandleVisit(ctx, "https://www.youtube.com/watch?v=abc", "Cat videos", noText)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.True(t, verdict.IsDistraction)
	assert.Equal(t, detect.TypeKnownDistraction, verdict.Type)
	assert.Equal(t, "Pull requests", verdict.From)
	assert.Equal(t, "Cat videos", verdict.To)

	select {
	case got := <-fired:
		assert.Equal(t, detect.TypeKnownDistraction, got.Type)
	case <-time.After(time.Second):
		t.Fatal("distraction hook did not fire")
	}

	// The distraction lands in the aggregates when the visit closes.
	clock = t0.Add(15 * time.Minute)
	require.NoError(t, trk.EndSession(ctx))

	stats, err := store.DayStats(ctx, storage.DayKey(t0))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DistractionCount)
	assert.Equal(t, 300, stats.DistractionSeconds)
	assert.Equal(t, 1, stats.Hourly[14])
}

func TestReset_DropsSessionState(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()
	require.NoError(t, trk.SetTracking(ctx, true))

	_, err := trk.HandleVisit(ctx, "https://github.com/pulls", "Pulls", noText)
	require.NoError(t, err)
	_, err = trk.HandleVisit(ctx, "https://www.youtube.com/feed", "Feed", noText)
	require.NoError(t, err)

	require.NoError(t, trk.Reset(ctx))

	n, err := store.HistoryCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, _, ok := trk.CurrentVisit()
	assert.False(t, ok)

	// Tracking survives a reset.
	assert.True(t, trk.Enabled())
}

// --- pomodoro ---

func TestStartWork_ForceEnablesTracking(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()
	assert.False(t, trk.Enabled())

	state, err := trk.StartWork(ctx)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, KindWork, state.Kind)
	assert.Equal(t, 25*60, state.DurationSeconds)

	assert.True(t, trk.Enabled())
	persisted, err := store.TrackingEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, persisted)
}

func TestCompletePomodoro_Cycle(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()

	day := storage.DayKey(time.Now())

	// Three work sessions earn short breaks, the fourth a long break.
	for i := 1; i <= 4; i++ {
		_, err := trk.StartWork(ctx)
		require.NoError(t, err)

		next, started, err := trk.CompletePomodoro(ctx)
		require.NoError(t, err)
		assert.True(t, started, "breaks auto-start by default")
		if i%4 == 0 {
			assert.Equal(t, KindLongBreak, next)
		} else {
			assert.Equal(t, KindShortBreak, next)
		}

		// Finish the break; work does not auto-start by default.
		next, started, err = trk.CompletePomodoro(ctx)
		require.NoError(t, err)
		assert.Equal(t, KindWork, next)
		assert.False(t, started)
	}

	count, err := store.PomodoroCompletedOn(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// The long break reset the cycle.
	assert.Zero(t, trk.Pomodoro().SessionCount)
}

func TestCompletePomodoro_NoActiveSession(t *testing.T) {
	trk, _ := newTestTracker(t, "{}")

	next, started, err := trk.CompletePomodoro(context.Background())
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.False(t, started)
}

func TestStopPomodoro_DoesNotRecord(t *testing.T) {
	trk, store := newTestTracker(t, "{}")
	ctx := context.Background()

	_, err := trk.StartWork(ctx)
	require.NoError(t, err)

	state := trk.StopPomodoro()
	assert.False(t, state.Active)

	count, err := store.PomodoroCompletedOn(ctx, storage.DayKey(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, count, "abandoned sessions are not recorded")
}
