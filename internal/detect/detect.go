// Package detect decides whether the transition between two classified page
// visits represents a lapse in focus. It is pure: no I/O, no failure mode.
package detect

import "github.com/driftwatch/driftwatch/internal/classify"

// Distraction types, in rule order.
const (
	TypeKnownDistraction    = "known_distraction"
	TypeContextSwitch       = "context_switch"
	TypeDifficultyAvoidance = "difficulty_avoidance"
)

// Per-type confidence constants.
const (
	ConfidenceKnown     = 0.9
	ConfidenceSwitch    = 0.8
	ConfidenceAvoidance = 0.6
)

// Verdict is the detector's judgment on a transition. Type is empty and
// Confidence zero when no rule fires.
type Verdict struct {
	IsDistraction bool    `json:"isDistraction"`
	Type          string  `json:"type,omitempty"`
	From          string  `json:"from,omitempty"`
	To            string  `json:"to,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Detect compares the previous visit's classification against the current
// one. Rules are evaluated in order and the first match wins; callers must
// skip detection entirely when there is no previous visit.
func Detect(previous, current classify.Classification) Verdict {
	if current.IsDistraction {
		return Verdict{
			IsDistraction: true,
			Type:          TypeKnownDistraction,
			From:          previous.Topic,
			To:            current.Topic,
			Confidence:    ConfidenceKnown,
		}
	}

	if productiveCategory(previous.Category) && distractingCategory(current.Category) {
		return Verdict{
			IsDistraction: true,
			Type:          TypeContextSwitch,
			From:          previous.Topic,
			To:            current.Topic,
			Confidence:    ConfidenceSwitch,
		}
	}

	if previous.Difficulty == classify.DifficultyHard && current.Difficulty == classify.DifficultyEasy {
		return Verdict{
			IsDistraction: true,
			Type:          TypeDifficultyAvoidance,
			From:          previous.Topic,
			To:            current.Topic,
			Confidence:    ConfidenceAvoidance,
		}
	}

	return Verdict{}
}

func productiveCategory(c string) bool {
	return c == classify.CategoryWork || c == classify.CategoryEducational
}

func distractingCategory(c string) bool {
	return c == classify.CategoryEntertainment || c == classify.CategorySocial
}
