package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Host:           "127.0.0.1",
			Port:           7781,
			MaxRequestSize: 1048576,
		},
		Storage: StorageConfig{
			Path:       "~/.config/driftwatch",
			SQLiteFile: "driftwatch.db",
		},
		Tracking: TrackingConfig{
			HistoryLimit:  500,
			CacheTTLHours: 24,
			SnippetChars:  1500,
		},
		Model: ModelConfig{
			APIKey:         "",
			Model:          "gemini-2.5-flash",
			BaseURL:        "https://generativelanguage.googleapis.com/v1",
			TimeoutSeconds: 30,
		},
		Backend: BackendConfig{
			URL:                 "http://localhost:3000",
			SyncIntervalMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
