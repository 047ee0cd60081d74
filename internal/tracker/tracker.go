// Package tracker owns the per-session visit state: it closes the previous
// visit when a new navigation arrives, classifies the new page, runs
// distraction detection, and folds closed visits into the daily aggregates.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/detect"
	"github.com/driftwatch/driftwatch/internal/storage"
)

// openVisit is the in-progress visit; its duration is unknown until the
// next navigation closes it.
type openVisit struct {
	startedAt      time.Time
	url            string
	title          string
	hostname       string
	classification classify.Classification
	verdict        *detect.Verdict
}

// Tracker serializes all visit close/open transitions behind one mutex, so
// two navigations racing on the same day record can never lose an update.
type Tracker struct {
	mu         sync.Mutex
	store      *storage.Store
	classifier *classify.Classifier
	current    *openVisit
	previous   *openVisit
	enabled    bool
	now        func() time.Time
	log        zerolog.Logger

	// onDistraction fires outside the critical path for each detected
	// distraction (best-effort backend sync).
	onDistraction func(v detect.Verdict, at time.Time)

	pomodoro         PomodoroState
	pomodoroSettings PomodoroSettings
}

// New builds a Tracker and loads the persisted tracking toggle.
func New(ctx context.Context, store *storage.Store, classifier *classify.Classifier, log zerolog.Logger) (*Tracker, error) {
	enabled, err := store.TrackingEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		store:            store,
		classifier:       classifier,
		enabled:          enabled,
		now:              time.Now,
		log:              log,
		pomodoroSettings: DefaultPomodoroSettings(),
	}, nil
}

// restrictedPrefixes are browser-internal URLs that are never tracked.
var restrictedPrefixes = []string{"chrome://", "edge://", "about:", "chrome-extension://"}

// Restricted reports whether a URL belongs to the browser itself.
func Restricted(url string) bool {
	for _, p := range restrictedPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

// HandleVisit processes one navigation/tab-switch event: the previous visit
// is closed and persisted with its final duration, the new page is
// classified, and the transition is judged against the previous visit. The
// returned verdict is nil when there was no predecessor in this session.
func (t *Tracker) HandleVisit(ctx context.Context, url, title string, extract classify.Extractor) (*detect.Verdict, error) {
	if Restricted(url) {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return nil, nil
	}

	now := t.now()

	if err := t.closeCurrentLocked(ctx, now); err != nil {
		return nil, err
	}

	classification := t.classifier.Classify(ctx, url, title, extract)

	t.previous = t.current
	t.current = &openVisit{
		startedAt:      now,
		url:            url,
		title:          title,
		hostname:       classify.Hostname(url),
		classification: classification,
	}

	if t.previous == nil {
		return nil, nil
	}

	verdict := detect.Detect(t.previous.classification, t.current.classification)
	t.current.verdict = &verdict

	if verdict.IsDistraction {
		t.log.Info().
			Str("type", verdict.Type).
			Str("from", verdict.From).
			Str("to", verdict.To).
			Float64("confidence", verdict.Confidence).
			Msg("distraction detected")
		if t.onDistraction != nil {
			go t.onDistraction(verdict, now)
		}
	}

	return &verdict, nil
}

// closeCurrentLocked finalizes the in-progress visit at closeTime and
// persists it together with the day-stat update. Caller holds the mutex.
func (t *Tracker) closeCurrentLocked(ctx context.Context, closeTime time.Time) error {
	if t.current == nil {
		return nil
	}

	cur := t.current
	visit := &storage.Visit{
		StartedAt:       cur.startedAt,
		ClosedAt:        closeTime,
		URL:             cur.url,
		Title:           cur.title,
		Hostname:        cur.hostname,
		Classification:  cur.classification,
		Verdict:         cur.verdict,
		DurationSeconds: int(closeTime.Sub(cur.startedAt) / time.Second),
	}
	if visit.DurationSeconds < 0 {
		visit.DurationSeconds = 0
	}

	if err := t.store.CloseVisit(ctx, visit); err != nil {
		return err
	}

	t.log.Debug().
		Str("hostname", visit.Hostname).
		Int("duration_seconds", visit.DurationSeconds).
		Str("source", visit.Classification.Source).
		Msg("visit closed")
	return nil
}

// EndSession flushes the currently open visit, if any, and clears the
// session pointers. Called on daemon shutdown so the last visit is not lost.
func (t *Tracker) EndSession(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.closeCurrentLocked(ctx, t.now()); err != nil {
		return err
	}
	t.current = nil
	t.previous = nil
	return nil
}

// Reset irreversibly wipes history, daily stats, and both cache tiers, and
// drops the in-memory session state.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Reset(ctx); err != nil {
		return err
	}
	if err := t.classifier.Cache().Clear(ctx); err != nil {
		return err
	}
	t.current = nil
	t.previous = nil
	return nil
}

// SetTracking toggles tracking and persists the choice.
func (t *Tracker) SetTracking(ctx context.Context, enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SetTrackingEnabled(ctx, enabled); err != nil {
		return err
	}
	t.enabled = enabled
	return nil
}

// Enabled reports whether tracking is on.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// CurrentVisit exposes the open visit for analytics, if one exists.
func (t *Tracker) CurrentVisit() (topic, difficulty string, startedAt time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return "", "", time.Time{}, false
	}
	return t.current.classification.Topic, t.current.classification.Difficulty, t.current.startedAt, true
}

// OnDistraction registers the hook fired for each detected distraction.
func (t *Tracker) OnDistraction(fn func(v detect.Verdict, at time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDistraction = fn
}

// SetClock overrides the tracker's time source. Tests only.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
