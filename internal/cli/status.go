package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string `json:"version"`
	DatabasePath      string `json:"database_path"`
	DatabaseSizeBytes int64  `json:"database_size_bytes"`
	Visits            int64  `json:"visits"`
	Days              int64  `json:"days"`
	CachedHostnames   int64  `json:"cached_hostnames"`
	TrackingEnabled   bool   `json:"tracking_enabled"`
	DaemonRunning     bool   `json:"daemon_running"`
	BackendURL        string `json:"backend_url,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(cfg, store, db)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(cfg *config.Config, store *storage.Store, db *sql.DB) error {
	ctx := context.Background()

	visits, err := store.HistoryCount(ctx)
	if err != nil {
		return fmt.Errorf("count visits: %w", err)
	}
	days, err := store.DayCount(ctx)
	if err != nil {
		return fmt.Errorf("count days: %w", err)
	}
	cached, err := store.CacheCount(ctx)
	if err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}
	tracking, err := store.TrackingEnabled(ctx)
	if err != nil {
		return fmt.Errorf("read tracking setting: %w", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	dbSize := getDatabaseSize(db, dbPath)
	daemonRunning := checkDaemon(cfg.DaemonAddr())

	if c.globals != nil && c.globals.JSON {
		out := statusJSON{
			Version:           c.version,
			DatabasePath:      dbPath,
			DatabaseSizeBytes: dbSize,
			Visits:            visits,
			Days:              days,
			CachedHostnames:   cached,
			TrackingEnabled:   tracking,
			DaemonRunning:     daemonRunning,
			BackendURL:        cfg.Backend.URL,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println("DriftWatch Status")
	fmt.Println("=================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Visits:        %s\n", formatNumber(visits))
	fmt.Printf("Days tracked:  %s\n", formatNumber(days))
	fmt.Printf("Cached sites:  %s\n", formatNumber(cached))

	if tracking {
		fmt.Println("Tracking:      enabled")
	} else {
		fmt.Println("Tracking:      disabled")
	}
	if daemonRunning {
		fmt.Println("Daemon:        running")
	} else {
		fmt.Println("Daemon:        not running")
	}
	if cfg.Backend.URL != "" {
		fmt.Printf("Backend:       %s\n", cfg.Backend.URL)
	} else {
		fmt.Println("Backend:       disabled")
	}

	return nil
}

// getDatabaseSize returns the database file size in bytes. For on-disk
// databases, it uses os.Stat. For in-memory databases, it queries
// page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkDaemon attempts an HTTP GET to the daemon's status endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
