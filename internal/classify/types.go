// Package classify resolves a visited page to a classification, trying the
// known-site table, then a two-tier cache, then the text-completion model.
package classify

import "time"

// Classification sources, in order of preference.
const (
	SourceKnownSite    = "known_site"
	SourceCache        = "cache"
	SourceStorageCache = "storage_cache"
	SourceAI           = "ai"
	SourceFallback     = "fallback"
)

// Difficulty levels the model may assign.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Categories the model may assign.
const (
	CategoryWork          = "work"
	CategoryEducational   = "educational"
	CategoryEntertainment = "entertainment"
	CategorySocial        = "social"
	CategoryNews          = "news"
	CategoryShopping      = "shopping"
	CategoryOther         = "other"
)

// Classification is the result of classifying a single page.
type Classification struct {
	Topic         string `json:"topic"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	IsDistraction bool   `json:"isDistraction"`
	Source        string `json:"source"`
}

// CachedEntry is one memoized classification plus the time it was derived.
// Entries older than the cache TTL are treated as absent.
type CachedEntry struct {
	Data     Classification
	CachedAt time.Time
}

// Fallback returns the classification used when extraction or the model
// fails: neutral, never a distraction, so tracking always produces a record.
func Fallback(title, hostname string) Classification {
	topic := title
	if topic == "" {
		topic = hostname
	}
	return Classification{
		Topic:         topic,
		Category:      CategoryOther,
		Difficulty:    DifficultyMedium,
		IsDistraction: false,
		Source:        SourceFallback,
	}
}

func validCategory(c string) bool {
	switch c {
	case CategoryWork, CategoryEducational, CategoryEntertainment,
		CategorySocial, CategoryNews, CategoryShopping, CategoryOther:
		return true
	}
	return false
}

func validDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
