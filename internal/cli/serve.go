package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftwatch/driftwatch/internal/analytics"
	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/daemon"
	"github.com/driftwatch/driftwatch/internal/gemini"
	"github.com/driftwatch/driftwatch/internal/logging"
	"github.com/driftwatch/driftwatch/internal/syncer"
	"github.com/driftwatch/driftwatch/internal/tracker"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Daemon.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.globals != nil && c.globals.Verbose {
		cfg.Logging.Level = "debug"
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Model.APIKey == "" {
		log.Warn().Msg("no model API key configured; unknown sites will use the fallback classification")
	}
	completer := gemini.New(cfg.Model.APIKey, cfg.Model.Model,
		gemini.WithBaseURL(cfg.Model.BaseURL),
		gemini.WithTimeout(time.Duration(cfg.Model.TimeoutSeconds)*time.Second),
	)

	cache := classify.NewCache(store, time.Duration(cfg.Tracking.CacheTTLHours)*time.Hour)
	classifier := classify.NewClassifier(cache, completer, cfg.Tracking.SnippetChars, log)

	trk, err := tracker.New(ctx, store, classifier, log)
	if err != nil {
		return err
	}

	var sync *syncer.Client
	if cfg.Backend.URL != "" {
		userID, created, err := store.UserID(ctx)
		if err != nil {
			return err
		}
		sync = syncer.New(cfg.Backend.URL, userID, log)
		if created {
			name := "Team Member " + userID[:min(len(userID), 13)]
			if err := sync.RegisterUser(ctx, name); err != nil {
				log.Warn().Err(err).Msg("backend registration failed (running offline?)")
			}
		}
	}

	server := daemon.NewServer(cfg, store, trk, analytics.NewReader(store), sync, log)
	return server.Run(ctx)
}
