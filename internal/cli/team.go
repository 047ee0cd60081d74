package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/driftwatch/driftwatch/internal/syncer"
)

// Execute implements the go-flags Commander interface for TeamCommand.
func (c *TeamCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if cfg.Backend.URL == "" {
		return fmt.Errorf("no backend configured (set backend.url in the config file)")
	}

	client := syncer.New(cfg.Backend.URL, "", zerolog.Nop())
	dashboard, err := client.TeamDashboard(context.Background())
	if err != nil {
		return fmt.Errorf("fetch team dashboard: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	}

	fmt.Println("Team Dashboard")
	fmt.Println("==============")
	fmt.Printf("Members:       %d\n", dashboard.TotalUsers)
	fmt.Printf("Avg. score:    %d%%\n", dashboard.AverageProductivity)

	if len(dashboard.UserStats) > 0 {
		// Stable output order: by name, then user ID.
		ids := make([]string, 0, len(dashboard.UserStats))
		for id := range dashboard.UserStats {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := dashboard.UserStats[ids[i]], dashboard.UserStats[ids[j]]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return ids[i] < ids[j]
		})

		fmt.Println()
		fmt.Println("Members:")
		for _, id := range ids {
			stat := dashboard.UserStats[id]
			fmt.Printf("  %-24s %3d%%  %d distractions\n", stat.Name, stat.Productivity, stat.DistractionCount)
		}
	}

	if len(dashboard.TeamDistractions) > 0 {
		fmt.Println()
		fmt.Println("Team distractions:")
		for _, site := range dashboard.TeamDistractions {
			fmt.Printf("  %-24s %d\n", site.Hostname, site.Count)
		}
	}

	return nil
}
