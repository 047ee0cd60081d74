package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand — run the DriftWatch daemon in the foreground.
type ServeCommand struct {
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// AddCommand — manually record a page visit.
type AddCommand struct {
	URL     string `long:"url" description:"URL to record (required)"`
	Title   string `long:"title" description:"Page title"`
	Text    string `long:"text" description:"Inline page text for classification"`
	Seconds int    `long:"seconds" description:"Visit duration in seconds" default:"0"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show daemon health, storage counts, and configuration.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// StatsCommand — show the analytics snapshot for a day.
type StatsCommand struct {
	Date string `long:"date" description:"Day to show (YYYY-MM-DD, default today)"`

	globals *GlobalFlags
	version string
}

// TeamCommand — show the team dashboard from the backend.
type TeamCommand struct {
	globals *GlobalFlags
	version string
}

// ResetCommand — delete ALL tracking data with safety confirmation.
type ResetCommand struct {
	All   bool `long:"all" description:"Required flag to confirm reset intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}
