package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// openTestDB creates a migrated in-memory database and store.
func openTestDB(t *testing.T) (*storage.Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())
	store, err := storage.NewStore(db, 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, db
}

func seedVisits(t *testing.T, store *storage.Store, n int) {
	t.Helper()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	for i := 0; i < n; i++ {
		v := &storage.Visit{
			StartedAt: base,
			ClosedAt:  base.Add(time.Minute),
			URL:       "https://example.com",
			Hostname:  "example.com",
			Classification: classify.Classification{
				Topic: "x", Category: classify.CategoryOther,
				Difficulty: classify.DifficultyMedium, Source: classify.SourceFallback,
			},
			DurationSeconds: 60,
		}
		require.NoError(t, store.CloseVisit(context.Background(), v))
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()
	// A port nothing listens on, so the daemon probe reports not-running.
	cfg.Daemon.Port = 1
	cfg.Backend.URL = ""
	return cfg
}

func TestStatus_JSONOutput(t *testing.T) {
	store, db := openTestDB(t)
	seedVisits(t, store, 3)
	require.NoError(t, store.SetTrackingEnabled(context.Background(), true))

	cmd := &StatusCommand{
		globals: &GlobalFlags{JSON: true},
		version: "0.1.0-test",
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(testConfig(t), store, db)
	})
	require.NoError(t, err)

	var out statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))

	assert.Equal(t, "0.1.0-test", out.Version)
	assert.Equal(t, int64(3), out.Visits)
	assert.Equal(t, int64(1), out.Days)
	assert.Equal(t, int64(0), out.CachedHostnames)
	assert.True(t, out.TrackingEnabled)
	assert.False(t, out.DaemonRunning)
}

func TestStatus_HumanOutput(t *testing.T) {
	store, db := openTestDB(t)
	seedVisits(t, store, 2)

	cmd := &StatusCommand{
		globals: &GlobalFlags{},
		version: "0.1.0-test",
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(testConfig(t), store, db)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "DriftWatch Status")
	assert.Contains(t, output, "Version:       0.1.0-test")
	assert.Contains(t, output, "Visits:        2")
	assert.Contains(t, output, "Tracking:      disabled")
	assert.Contains(t, output, "Daemon:        not running")
	assert.Contains(t, output, "Backend:       disabled")
}

func TestGetDatabaseSize_InMemoryFallsBackToPragma(t *testing.T) {
	_, db := openTestDB(t)

	size := getDatabaseSize(db, "/nonexistent/path/driftwatch.db")
	assert.Greater(t, size, int64(0), "page_count * page_size of a migrated db")
}
