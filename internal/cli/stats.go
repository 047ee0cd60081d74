package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/driftwatch/driftwatch/internal/analytics"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
	date := c.Date
	if date == "" {
		date = storage.DayKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", c.Date)
	}

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

	reader := analytics.NewReader(store)
	snapshot, err := reader.Snapshot(context.Background(), date, nil)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	fmt.Printf("Stats for %s\n", snapshot.Date)
	fmt.Println("====================")
	fmt.Printf("Productivity:  %d%%\n", snapshot.ProductivityScore)
	fmt.Printf("Total time:    %s\n", formatSeconds(snapshot.TotalTime))
	fmt.Printf("Productive:    %s\n", formatSeconds(snapshot.ProductiveTime))
	fmt.Printf("Distracted:    %s (%d lapses)\n", formatSeconds(snapshot.DistractionTime), snapshot.DistractionCount)

	if len(snapshot.PeakHours) > 0 {
		fmt.Println()
		fmt.Println("Peak distraction hours:")
		for _, hour := range snapshot.PeakHours {
			fmt.Printf("  %02d:00\n", hour)
		}
	}

	if len(snapshot.TopDistractions) > 0 {
		fmt.Println()
		fmt.Println("Top distractions:")
		for _, site := range snapshot.TopDistractions {
			fmt.Printf("  %-24s %d\n", site.Hostname, site.Count)
		}
	}

	return nil
}
