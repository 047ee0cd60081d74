package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/gemini"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
// The visit is classified through the normal pipeline and recorded as
// already closed, backdated by --seconds. No distraction detection runs:
// a manual event has no session predecessor.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}
	if c.Seconds < 0 {
		return fmt.Errorf("--seconds must not be negative")
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

	ctx := context.Background()

	completer := gemini.New(cfg.Model.APIKey, cfg.Model.Model,
		gemini.WithBaseURL(cfg.Model.BaseURL),
		gemini.WithTimeout(time.Duration(cfg.Model.TimeoutSeconds)*time.Second),
	)
	cache := classify.NewCache(store, time.Duration(cfg.Tracking.CacheTTLHours)*time.Hour)
	classifier := classify.NewClassifier(cache, completer, cfg.Tracking.SnippetChars, zerolog.Nop())

	extract := func(ctx context.Context) (string, error) {
		return c.Text, nil
	}
	classification := classifier.Classify(ctx, c.URL, c.Title, extract)

	now := time.Now()
	visit := &storage.Visit{
		StartedAt:       now.Add(-time.Duration(c.Seconds) * time.Second),
		ClosedAt:        now,
		URL:             c.URL,
		Title:           c.Title,
		Hostname:        classify.Hostname(c.URL),
		Classification:  classification,
		DurationSeconds: c.Seconds,
	}
	if err := store.CloseVisit(ctx, visit); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"id":             visit.ID,
			"url":            visit.URL,
			"hostname":       visit.Hostname,
			"classification": classification,
			"seconds":        c.Seconds,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Recorded visit to %s (%s)\n", visit.Hostname, formatSeconds(c.Seconds))
	fmt.Printf("  Topic:       %s\n", classification.Topic)
	fmt.Printf("  Category:    %s\n", classification.Category)
	fmt.Printf("  Difficulty:  %s\n", classification.Difficulty)
	fmt.Printf("  Distraction: %v\n", classification.IsDistraction)
	fmt.Printf("  Source:      %s\n", classification.Source)

	return nil
}
