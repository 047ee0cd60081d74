package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/detect"
)

// DefaultHistoryLimit is how many closed visits are retained, oldest evicted
// first.
const DefaultHistoryLimit = 500

const pomodoroHistoryLimit = 100

// Store is the persisted local state: visit history, daily aggregates, the
// persisted classification-cache tier, settings, and pomodoro history.
type Store struct {
	db           *sql.DB
	historyLimit int

	insertVisit *sql.Stmt
	getCache    *sql.Stmt
	putCache    *sql.Stmt
	getSetting  *sql.Stmt
	setSetting  *sql.Stmt
}

// NewStore wraps an already-opened and migrated database. A historyLimit of
// zero means DefaultHistoryLimit.
func NewStore(db *sql.DB, historyLimit int) (*Store, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	s := &Store{db: db, historyLimit: historyLimit}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO page_history (
			started_at, closed_at, url, title, hostname,
			topic, category, difficulty, is_distraction, source,
			duration_seconds, has_verdict, verdict_distract, verdict_type,
			verdict_from, verdict_to, verdict_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getCache, err = s.db.Prepare(`
		SELECT topic, category, difficulty, is_distraction, cached_at
		FROM classification_cache WHERE hostname = ?
	`)
	if err != nil {
		return err
	}

	s.putCache, err = s.db.Prepare(`
		INSERT INTO classification_cache (hostname, topic, category, difficulty, is_distraction, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hostname) DO UPDATE SET
			topic = excluded.topic,
			category = excluded.category,
			difficulty = excluded.difficulty,
			is_distraction = excluded.is_distraction,
			cached_at = excluded.cached_at
	`)
	if err != nil {
		return err
	}

	s.getSetting, err = s.db.Prepare(`SELECT value FROM settings WHERE key = ?`)
	if err != nil {
		return err
	}

	s.setSetting, err = s.db.Prepare(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	return err
}

// CloseVisit records a closed visit and folds it into that day's aggregate
// in a single transaction, so a reader never observes the history updated
// without the day record (or vice versa). The day key and histogram hour are
// derived from the visit's local close time.
func (s *Store) CloseVisit(ctx context.Context, v *Visit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	verdict := v.Verdict
	if verdict == nil {
		verdict = &detect.Verdict{}
	}

	res, err := tx.StmtContext(ctx, s.insertVisit).ExecContext(ctx,
		v.StartedAt.UnixMilli(), v.ClosedAt.UnixMilli(), v.URL, v.Title, v.Hostname,
		v.Classification.Topic, v.Classification.Category, v.Classification.Difficulty,
		v.Classification.IsDistraction, v.Classification.Source,
		v.DurationSeconds, v.Verdict != nil, verdict.IsDistraction, verdict.Type,
		verdict.From, verdict.To, verdict.Confidence,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("visit id: %w", err)
	}

	// FIFO eviction beyond the history limit.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM page_history WHERE id NOT IN (
			SELECT id FROM page_history ORDER BY id DESC LIMIT ?
		)`, s.historyLimit)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := updateDayStats(ctx, tx, v); err != nil {
		return err
	}

	return tx.Commit()
}

// updateDayStats applies one closed visit to its day's aggregate, creating a
// zero-valued record the first time a visit closes on a new day.
func updateDayStats(ctx context.Context, tx *sql.Tx, v *Visit) error {
	day := DayKey(v.ClosedAt)

	stats, err := scanDayStats(tx.QueryRowContext(ctx, `
		SELECT total_seconds, productive_seconds, distraction_seconds, distraction_count, hourly
		FROM daily_stats WHERE date = ?`, day))
	if err != nil {
		return fmt.Errorf("read day stats: %w", err)
	}
	stats.Date = day

	stats.TotalSeconds += v.DurationSeconds
	distracted := v.Verdict != nil && v.Verdict.IsDistraction
	if distracted {
		stats.DistractionSeconds += v.DurationSeconds
		stats.DistractionCount++
		stats.Hourly[v.ClosedAt.Local().Hour()]++
	} else {
		stats.ProductiveSeconds += v.DurationSeconds
	}

	hourly, err := json.Marshal(stats.Hourly)
	if err != nil {
		return fmt.Errorf("marshal hourly: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_seconds, productive_seconds, distraction_seconds, distraction_count, hourly, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			total_seconds = excluded.total_seconds,
			productive_seconds = excluded.productive_seconds,
			distraction_seconds = excluded.distraction_seconds,
			distraction_count = excluded.distraction_count,
			hourly = excluded.hourly,
			updated_at = CURRENT_TIMESTAMP`,
		day, stats.TotalSeconds, stats.ProductiveSeconds,
		stats.DistractionSeconds, stats.DistractionCount, string(hourly),
	)
	if err != nil {
		return fmt.Errorf("write day stats: %w", err)
	}

	if distracted {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_sites (date, hostname, count) VALUES (?, ?, 1)
			ON CONFLICT(date, hostname) DO UPDATE SET count = count + 1`,
			day, v.Hostname,
		)
		if err != nil {
			return fmt.Errorf("count distraction site: %w", err)
		}
	}

	return nil
}

// scanDayStats reads one daily_stats row. A missing row (or unreadable
// hourly payload) yields zero-valued stats, not an error.
func scanDayStats(row *sql.Row) (*DayStats, error) {
	stats := &DayStats{}
	var hourly string
	err := row.Scan(&stats.TotalSeconds, &stats.ProductiveSeconds,
		&stats.DistractionSeconds, &stats.DistractionCount, &hourly)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(hourly), &stats.Hourly)
	return stats, nil
}

// DayStats returns the aggregate for a day, zero-valued when absent.
func (s *Store) DayStats(ctx context.Context, date string) (*DayStats, error) {
	stats, err := scanDayStats(s.db.QueryRowContext(ctx, `
		SELECT total_seconds, productive_seconds, distraction_seconds, distraction_count, hourly
		FROM daily_stats WHERE date = ?`, date))
	if err != nil {
		return nil, fmt.Errorf("read day stats: %w", err)
	}
	stats.Date = date
	return stats, nil
}

// TopSites returns the most frequent distraction hostnames for a day,
// descending by count with hostname ascending as the tie-break.
func (s *Store) TopSites(ctx context.Context, date string, limit int) ([]SiteCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hostname, count FROM daily_sites
		WHERE date = ? ORDER BY count DESC, hostname ASC LIMIT ?`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("query top sites: %w", err)
	}
	defer rows.Close()

	sites := []SiteCount{}
	for rows.Next() {
		var sc SiteCount
		if err := rows.Scan(&sc.Hostname, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan site count: %w", err)
		}
		sites = append(sites, sc)
	}
	return sites, rows.Err()
}

// SiteCounts returns the full hostname→count distraction map for a day.
func (s *Store) SiteCounts(ctx context.Context, date string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hostname, count FROM daily_sites WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("query site counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var hostname string
		var count int
		if err := rows.Scan(&hostname, &count); err != nil {
			return nil, fmt.Errorf("scan site count: %w", err)
		}
		counts[hostname] = count
	}
	return counts, rows.Err()
}

// History returns the most recent closed visits, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Visit, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, closed_at, url, title, hostname,
		       topic, category, difficulty, is_distraction, source,
		       duration_seconds, has_verdict, verdict_distract, verdict_type,
		       verdict_from, verdict_to, verdict_confidence
		FROM page_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		var startedMS, closedMS int64
		var hasVerdict bool
		var verdict detect.Verdict
		if err := rows.Scan(
			&v.ID, &startedMS, &closedMS, &v.URL, &v.Title, &v.Hostname,
			&v.Classification.Topic, &v.Classification.Category, &v.Classification.Difficulty,
			&v.Classification.IsDistraction, &v.Classification.Source,
			&v.DurationSeconds, &hasVerdict, &verdict.IsDistraction, &verdict.Type,
			&verdict.From, &verdict.To, &verdict.Confidence,
		); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.StartedAt = time.UnixMilli(startedMS)
		v.ClosedAt = time.UnixMilli(closedMS)
		if hasVerdict {
			v.Verdict = &verdict
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// HistoryCount returns how many closed visits are retained.
func (s *Store) HistoryCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_history").Scan(&n)
	return n, err
}

// DayCount returns how many days have recorded stats.
func (s *Store) DayCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_stats").Scan(&n)
	return n, err
}

// CacheCount returns how many hostnames are in the persisted cache tier.
func (s *Store) CacheCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM classification_cache").Scan(&n)
	return n, err
}

// GetCachedClassification implements classify.CacheStore. Absent entries
// return (nil, nil); freshness is the caller's concern.
func (s *Store) GetCachedClassification(ctx context.Context, hostname string) (*classify.CachedEntry, error) {
	var entry classify.CachedEntry
	var cachedMS int64
	err := s.getCache.QueryRowContext(ctx, hostname).Scan(
		&entry.Data.Topic, &entry.Data.Category, &entry.Data.Difficulty,
		&entry.Data.IsDistraction, &cachedMS,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	entry.CachedAt = time.UnixMilli(cachedMS)
	return &entry, nil
}

// PutCachedClassification implements classify.CacheStore with a per-key
// upsert, so concurrent writes for different hostnames never collide.
func (s *Store) PutCachedClassification(ctx context.Context, hostname string, entry classify.CachedEntry) error {
	_, err := s.putCache.ExecContext(ctx, hostname,
		entry.Data.Topic, entry.Data.Category, entry.Data.Difficulty,
		entry.Data.IsDistraction, entry.CachedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// ClearClassificationCache implements classify.CacheStore.
func (s *Store) ClearClassificationCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM classification_cache")
	return err
}

// TrackingEnabled reports whether tracking is on. Missing setting means off.
func (s *Store) TrackingEnabled(ctx context.Context) (bool, error) {
	var value string
	err := s.getSetting.QueryRowContext(ctx, SettingTrackingEnabled).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read tracking setting: %w", err)
	}
	return value == "true", nil
}

// SetTrackingEnabled persists the tracking toggle.
func (s *Store) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	if _, err := s.setSetting.ExecContext(ctx, SettingTrackingEnabled, value); err != nil {
		return fmt.Errorf("write tracking setting: %w", err)
	}
	return nil
}

// UserID returns the stable user identifier, generating and persisting one
// on first call. The second return reports whether the ID was just created.
func (s *Store) UserID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.getSetting.QueryRowContext(ctx, SettingUserID).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, fmt.Errorf("read user id: %w", err)
	}

	id = "user_" + uuid.NewString()
	if _, err := s.setSetting.ExecContext(ctx, SettingUserID, id); err != nil {
		return "", false, fmt.Errorf("write user id: %w", err)
	}
	return id, true, nil
}

// Reset wipes history, daily aggregates, and the persisted cache tier.
// Settings (user ID, tracking toggle) survive. Irreversible.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM page_history",
		"DELETE FROM daily_stats",
		"DELETE FROM daily_sites",
		"DELETE FROM classification_cache",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset (%s): %w", stmt, err)
		}
	}
	return tx.Commit()
}

// AddPomodoroSession records one completed session and trims the history.
func (s *Store) AddPomodoroSession(ctx context.Context, sess PomodoroSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		"INSERT INTO pomodoro_sessions (started_at, kind, completed) VALUES (?, ?, ?)",
		sess.StartedAt.UnixMilli(), sess.Kind, sess.Completed,
	)
	if err != nil {
		return fmt.Errorf("insert pomodoro session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM pomodoro_sessions WHERE id NOT IN (
			SELECT id FROM pomodoro_sessions ORDER BY id DESC LIMIT ?
		)`, pomodoroHistoryLimit)
	if err != nil {
		return fmt.Errorf("trim pomodoro history: %w", err)
	}

	return tx.Commit()
}

// PomodoroCompletedOn counts completed work sessions on a local calendar day.
func (s *Store) PomodoroCompletedOn(ctx context.Context, date string) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT started_at FROM pomodoro_sessions WHERE kind = 'work' AND completed = 1")
	if err != nil {
		return 0, fmt.Errorf("query pomodoro sessions: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var startedMS int64
		if err := rows.Scan(&startedMS); err != nil {
			return 0, fmt.Errorf("scan pomodoro session: %w", err)
		}
		if DayKey(time.UnixMilli(startedMS)) == date {
			count++
		}
	}
	return count, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed — that is the caller's responsibility.
func (s *Store) Close() error {
	stmts := []*sql.Stmt{
		s.insertVisit, s.getCache, s.putCache, s.getSetting, s.setSetting,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
