package storage

import "database/sql"

// migrateV001 creates the initial DriftWatch schema. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS page_history (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at         INTEGER NOT NULL,
			closed_at          INTEGER NOT NULL,
			url                TEXT NOT NULL,
			title              TEXT NOT NULL DEFAULT '',
			hostname           TEXT NOT NULL DEFAULT '',
			topic              TEXT NOT NULL DEFAULT '',
			category           TEXT NOT NULL DEFAULT 'other',
			difficulty         TEXT NOT NULL DEFAULT 'medium',
			is_distraction     BOOLEAN NOT NULL DEFAULT 0,
			source             TEXT NOT NULL DEFAULT 'fallback',
			duration_seconds   INTEGER NOT NULL DEFAULT 0,
			has_verdict        BOOLEAN NOT NULL DEFAULT 0,
			verdict_distract   BOOLEAN NOT NULL DEFAULT 0,
			verdict_type       TEXT NOT NULL DEFAULT '',
			verdict_from       TEXT NOT NULL DEFAULT '',
			verdict_to         TEXT NOT NULL DEFAULT '',
			verdict_confidence REAL NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS daily_stats (
			date                TEXT PRIMARY KEY,
			total_seconds       INTEGER NOT NULL DEFAULT 0,
			productive_seconds  INTEGER NOT NULL DEFAULT 0,
			distraction_seconds INTEGER NOT NULL DEFAULT 0,
			distraction_count   INTEGER NOT NULL DEFAULT 0,
			hourly              TEXT NOT NULL DEFAULT '[]',
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS daily_sites (
			date     TEXT NOT NULL,
			hostname TEXT NOT NULL,
			count    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (date, hostname)
		)`,

		`CREATE TABLE IF NOT EXISTS classification_cache (
			hostname       TEXT PRIMARY KEY,
			topic          TEXT NOT NULL DEFAULT '',
			category       TEXT NOT NULL DEFAULT 'other',
			difficulty     TEXT NOT NULL DEFAULT 'medium',
			is_distraction BOOLEAN NOT NULL DEFAULT 0,
			cached_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pomodoro_sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			kind       TEXT NOT NULL CHECK (kind IN ('work', 'short_break', 'long_break')),
			completed  BOOLEAN NOT NULL DEFAULT 1
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_history_closed    ON page_history(closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_hostname  ON page_history(hostname)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_sites_count ON daily_sites(date, count)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_cached_at   ON classification_cache(cached_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pomodoro_started  ON pomodoro_sessions(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
