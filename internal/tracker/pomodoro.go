package tracker

import (
	"context"
	"time"

	"github.com/driftwatch/driftwatch/internal/storage"
)

// Pomodoro session kinds.
const (
	KindWork       = "work"
	KindShortBreak = "short_break"
	KindLongBreak  = "long_break"
)

// longBreakEvery is how many completed work sessions earn a long break.
const longBreakEvery = 4

// PomodoroSettings configures session lengths and chaining.
type PomodoroSettings struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
	AutoStartBreaks   bool
	AutoStartWork     bool
}

// DefaultPomodoroSettings returns the classic 25/5/15 configuration.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		AutoStartBreaks:   true,
		AutoStartWork:     false,
	}
}

// PomodoroState is the current focus-session state. Countdown mechanics
// live with the caller; only the state and completion history are owned
// here.
type PomodoroState struct {
	Active          bool      `json:"active"`
	Kind            string    `json:"kind"`
	StartedAt       time.Time `json:"startedAt"`
	DurationSeconds int       `json:"durationSeconds"`
	SessionCount    int       `json:"sessionCount"`
}

// SetPomodoroSettings replaces the session configuration.
func (t *Tracker) SetPomodoroSettings(s PomodoroSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pomodoroSettings = s
}

// StartWork begins a work session. Tracking is force-enabled for the
// duration of focus work.
func (t *Tracker) StartWork(ctx context.Context) (PomodoroState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SetTrackingEnabled(ctx, true); err != nil {
		return PomodoroState{}, err
	}
	t.enabled = true

	t.pomodoro.Active = true
	t.pomodoro.Kind = KindWork
	t.pomodoro.StartedAt = t.now()
	t.pomodoro.DurationSeconds = t.pomodoroSettings.WorkMinutes * 60
	return t.pomodoro, nil
}

// CompletePomodoro records the active session as completed and advances the
// cycle: every fourth completed work session earns a long break. It returns
// the next session kind and whether it was auto-started.
func (t *Tracker) CompletePomodoro(ctx context.Context) (next string, started bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pomodoro.Active {
		return "", false, nil
	}

	completed := t.pomodoro.Kind
	if err := t.store.AddPomodoroSession(ctx, storage.PomodoroSession{
		StartedAt: t.pomodoro.StartedAt,
		Kind:      completed,
		Completed: true,
	}); err != nil {
		return "", false, err
	}

	if completed == KindWork {
		t.pomodoro.SessionCount++
		next = KindShortBreak
		if t.pomodoro.SessionCount%longBreakEvery == 0 {
			next = KindLongBreak
		}
		if t.pomodoroSettings.AutoStartBreaks {
			t.startBreakLocked(next)
			return next, true, nil
		}
	} else {
		if completed == KindLongBreak {
			t.pomodoro.SessionCount = 0
		}
		next = KindWork
		if t.pomodoroSettings.AutoStartWork {
			t.pomodoro.Active = true
			t.pomodoro.Kind = KindWork
			t.pomodoro.StartedAt = t.now()
			t.pomodoro.DurationSeconds = t.pomodoroSettings.WorkMinutes * 60
			return next, true, nil
		}
	}

	t.pomodoro.Active = false
	return next, false, nil
}

func (t *Tracker) startBreakLocked(kind string) {
	minutes := t.pomodoroSettings.ShortBreakMinutes
	if kind == KindLongBreak {
		minutes = t.pomodoroSettings.LongBreakMinutes
	}
	t.pomodoro.Active = true
	t.pomodoro.Kind = kind
	t.pomodoro.StartedAt = t.now()
	t.pomodoro.DurationSeconds = minutes * 60
}

// StopPomodoro abandons the active session without recording it.
func (t *Tracker) StopPomodoro() PomodoroState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pomodoro.Active = false
	t.pomodoro.Kind = ""
	t.pomodoro.DurationSeconds = 0
	return t.pomodoro
}

// Pomodoro returns the current session state.
func (t *Tracker) Pomodoro() PomodoroState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pomodoro
}
