package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftwatch/driftwatch/internal/classify"
)

func page(topic, category, difficulty string, distraction bool) classify.Classification {
	return classify.Classification{
		Topic:         topic,
		Category:      category,
		Difficulty:    difficulty,
		IsDistraction: distraction,
	}
}

func TestDetect_KnownDistraction(t *testing.T) {
	previous := page("Code review", classify.CategoryWork, classify.DifficultyMedium, false)
	current := page("Watching videos", classify.CategoryEntertainment, classify.DifficultyEasy, true)

	v := Detect(previous, current)

	assert.True(t, v.IsDistraction)
	assert.Equal(t, TypeKnownDistraction, v.Type)
	assert.Equal(t, "Code review", v.From)
	assert.Equal(t, "Watching videos", v.To)
	assert.InDelta(t, ConfidenceKnown, v.Confidence, 0.001)
}

func TestDetect_KnownDistractionWinsOverContextSwitch(t *testing.T) {
	// Work → flagged social page matches both the known-distraction and the
	// context-switch rule; the first rule must win.
	previous := page("Sprint planning", classify.CategoryWork, classify.DifficultyMedium, false)
	current := page("Feed scrolling", classify.CategorySocial, classify.DifficultyEasy, true)

	v := Detect(previous, current)

	assert.Equal(t, TypeKnownDistraction, v.Type)
	assert.InDelta(t, ConfidenceKnown, v.Confidence, 0.001)
}

func TestDetect_ContextSwitch(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"work to entertainment", classify.CategoryWork, classify.CategoryEntertainment},
		{"work to social", classify.CategoryWork, classify.CategorySocial},
		{"educational to entertainment", classify.CategoryEducational, classify.CategoryEntertainment},
		{"educational to social", classify.CategoryEducational, classify.CategorySocial},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Detect(page("a", tc.from, classify.DifficultyMedium, false),
				page("b", tc.to, classify.DifficultyMedium, false))

			assert.True(t, v.IsDistraction)
			assert.Equal(t, TypeContextSwitch, v.Type)
			assert.InDelta(t, ConfidenceSwitch, v.Confidence, 0.001)
		})
	}
}

func TestDetect_NoSwitchFromNeutralCategories(t *testing.T) {
	// Shopping → social is not a tracked context switch.
	v := Detect(page("a", classify.CategoryShopping, classify.DifficultyMedium, false),
		page("b", classify.CategorySocial, classify.DifficultyMedium, false))
	assert.False(t, v.IsDistraction)
}

func TestDetect_DifficultyAvoidance(t *testing.T) {
	previous := page("Paper on type theory", classify.CategoryEducational, classify.DifficultyHard, false)
	current := page("Listicle", classify.CategoryNews, classify.DifficultyEasy, false)

	v := Detect(previous, current)

	assert.True(t, v.IsDistraction)
	assert.Equal(t, TypeDifficultyAvoidance, v.Type)
	assert.InDelta(t, ConfidenceAvoidance, v.Confidence, 0.001)
}

func TestDetect_HardToMediumIsNotAvoidance(t *testing.T) {
	v := Detect(page("a", classify.CategoryEducational, classify.DifficultyHard, false),
		page("b", classify.CategoryNews, classify.DifficultyMedium, false))
	assert.False(t, v.IsDistraction)
}

func TestDetect_CleanTransition(t *testing.T) {
	v := Detect(page("Pull request", classify.CategoryWork, classify.DifficultyMedium, false),
		page("API docs", classify.CategoryEducational, classify.DifficultyMedium, false))

	assert.False(t, v.IsDistraction)
	assert.Empty(t, v.Type)
	assert.Empty(t, v.From)
	assert.Empty(t, v.To)
	assert.Zero(t, v.Confidence)
}
