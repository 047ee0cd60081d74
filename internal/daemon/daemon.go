// Package daemon is the local HTTP service the browser extension talks to.
// It feeds visit events into the tracker, serves analytics to the popup, and
// drives the periodic backend sync.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftwatch/driftwatch/internal/analytics"
	"github.com/driftwatch/driftwatch/internal/classify"
	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/detect"
	"github.com/driftwatch/driftwatch/internal/storage"
	"github.com/driftwatch/driftwatch/internal/syncer"
	"github.com/driftwatch/driftwatch/internal/tracker"
)

// Server wires the tracking pipeline behind a localhost HTTP interface.
type Server struct {
	cfg     *config.Config
	store   *storage.Store
	tracker *tracker.Tracker
	reader  *analytics.Reader
	sync    *syncer.Client // nil when backend sync is disabled
	log     zerolog.Logger
	mux     *http.ServeMux
	now     func() time.Time
}

// NewServer assembles the daemon. sync may be nil to run fully offline.
func NewServer(cfg *config.Config, store *storage.Store, trk *tracker.Tracker, reader *analytics.Reader, sync *syncer.Client, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		tracker: trk,
		reader:  reader,
		sync:    sync,
		log:     log,
		mux:     http.NewServeMux(),
		now:     time.Now,
	}

	s.mux.HandleFunc("/visit", s.handleVisit)
	s.mux.HandleFunc("/session/end", s.handleSessionEnd)
	s.mux.HandleFunc("/analytics", s.handleAnalytics)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/tracking", s.handleTracking)
	s.mux.HandleFunc("/reset", s.handleReset)
	s.mux.HandleFunc("/team", s.handleTeam)
	s.mux.HandleFunc("/pomodoro", s.handlePomodoro)
	s.mux.HandleFunc("/pomodoro/start", s.handlePomodoroStart)
	s.mux.HandleFunc("/pomodoro/complete", s.handlePomodoroComplete)
	s.mux.HandleFunc("/pomodoro/stop", s.handlePomodoroStop)

	// Distraction events sync immediately, best-effort, off the hot path.
	if sync != nil {
		trk.OnDistraction(func(v detect.Verdict, at time.Time) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sync.TrackDistraction(ctx, v, at); err != nil {
				log.Warn().Err(err).Msg("distraction sync failed")
			}
		})
	}

	return s
}

// Handler exposes the route table (tests drive it via httptest).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is canceled, syncing analytics once at start and on
// the configured interval. On shutdown the open visit is flushed and a
// final sync attempted, so the last visit of a session is not lost.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.DaemonAddr(),
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("daemon listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.syncLoop(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.tracker.EndSession(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("flush open visit failed")
	}
	s.syncAnalytics(shutdownCtx)

	return srv.Shutdown(shutdownCtx)
}

// syncLoop pushes the day's aggregate at start and then hourly (or as
// configured).
func (s *Server) syncLoop(ctx context.Context) {
	if s.sync == nil {
		return
	}

	interval := time.Duration(s.cfg.Backend.SyncIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	s.syncAnalytics(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncAnalytics(ctx)
		}
	}
}

// syncAnalytics pushes today's stats. Failures are logged and dropped; the
// next tick retries implicitly.
func (s *Server) syncAnalytics(ctx context.Context) {
	if s.sync == nil {
		return
	}

	date := storage.DayKey(s.now())
	stats, err := s.store.DayStats(ctx, date)
	if err != nil {
		s.log.Warn().Err(err).Msg("read day stats for sync failed")
		return
	}
	if stats.TotalSeconds == 0 && stats.DistractionCount == 0 {
		return
	}
	sites, err := s.store.SiteCounts(ctx, date)
	if err != nil {
		s.log.Warn().Err(err).Msg("read site counts for sync failed")
		return
	}

	if err := s.sync.SaveAnalytics(ctx, date, syncer.StatsPayload(stats, sites)); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("analytics sync failed")
		return
	}
	s.log.Debug().Str("date", date).Msg("analytics synced")
}

type visitRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type visitResponse struct {
	Tracked     bool            `json:"tracked"`
	Distraction *detect.Verdict `json:"distraction,omitempty"`
}

// handleVisit receives one navigation/tab-switch event. The extension is
// the page-content extractor: whatever text it managed to pull rides along
// in the request.
func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	if !s.tracker.Enabled() || tracker.Restricted(req.URL) {
		s.writeJSON(w, visitResponse{Tracked: false})
		return
	}

	extract := func(ctx context.Context) (string, error) {
		return req.Text, nil
	}

	verdict, err := s.tracker.HandleVisit(r.Context(), req.URL, req.Title, classify.Extractor(extract))
	if err != nil {
		s.log.Error().Err(err).Str("url", req.URL).Msg("visit handling failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, visitResponse{Tracked: true, Distraction: verdict})
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.tracker.EndSession(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("session end failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	now := s.now()
	if date == "" {
		date = storage.DayKey(now)
	}

	var focus *analytics.Focus
	if topic, difficulty, startedAt, ok := s.tracker.CurrentVisit(); ok {
		focus = analytics.ElapsedFocus(topic, difficulty, startedAt, now)
	}

	snapshot, err := s.reader.Snapshot(r.Context(), date, focus)
	if err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("snapshot failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, snapshot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"tracking": s.tracker.Enabled(),
	})
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.tracker.SetTracking(r.Context(), req.Enabled); err != nil {
		s.log.Error().Err(err).Msg("tracking toggle failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.tracker.Reset(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("reset failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.log.Info().Msg("tracking data cleared")
	s.writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		http.Error(w, "backend sync disabled", http.StatusServiceUnavailable)
		return
	}
	dashboard, err := s.sync.TeamDashboard(r.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("team dashboard fetch failed")
		http.Error(w, "backend unavailable", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, dashboard)
}

func (s *Server) handlePomodoro(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.tracker.Pomodoro())
}

func (s *Server) handlePomodoroStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state, err := s.tracker.StartWork(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("pomodoro start failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, state)
}

func (s *Server) handlePomodoroComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	next, started, err := s.tracker.CompletePomodoro(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("pomodoro complete failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"next":    next,
		"started": started,
		"state":   s.tracker.Pomodoro(),
	})
}

func (s *Server) handlePomodoroStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.tracker.StopPomodoro())
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Daemon.MaxRequestSize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("write response failed")
	}
}
