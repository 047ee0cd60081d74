package classify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/driftwatch/driftwatch/internal/sites"
)

// DefaultSnippetChars bounds how much extracted page text goes into the
// classification prompt.
const DefaultSnippetChars = 1500

const topicMaxChars = 30

// Extractor supplies the visible text of the page being classified. It is
// only invoked when the known-site table and both cache tiers miss.
type Extractor func(ctx context.Context) (string, error)

// Completer is the opaque text-completion service used for dynamic
// classification.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier resolves pages to classifications. Classify never fails: any
// extraction or model error degrades to the fallback classification.
type Classifier struct {
	cache        *Cache
	completer    Completer
	snippetChars int
	group        singleflight.Group
	log          zerolog.Logger
}

// NewClassifier builds a Classifier. A zero snippetChars means
// DefaultSnippetChars.
func NewClassifier(cache *Cache, completer Completer, snippetChars int, log zerolog.Logger) *Classifier {
	if snippetChars <= 0 {
		snippetChars = DefaultSnippetChars
	}
	return &Classifier{
		cache:        cache,
		completer:    completer,
		snippetChars: snippetChars,
		log:          log,
	}
}

// Classify resolves url/title to a best-effort classification. Resolution
// order: known-site table, volatile cache, persisted cache, model call with
// extracted page text. First success wins; model results are cached before
// returning.
func (c *Classifier) Classify(ctx context.Context, rawURL, title string, extract Extractor) Classification {
	hostname := Hostname(rawURL)

	if profile, ok := sites.Lookup(hostname); ok {
		topic := title
		if topic == "" {
			topic = hostname
		}
		return Classification{
			Topic:         topic,
			Category:      profile.Category,
			Difficulty:    profile.Difficulty,
			IsDistraction: profile.IsDistraction,
			Source:        SourceKnownSite,
		}
	}

	if data, ok := c.cache.Get(ctx, hostname); ok {
		return data
	}

	// Collapse concurrent fills for the same hostname into one model call.
	result, err, _ := c.group.Do(hostname, func() (interface{}, error) {
		return c.classifyExternal(ctx, rawURL, title, hostname, extract)
	})
	if err != nil {
		c.log.Debug().Err(err).Str("hostname", hostname).Msg("classification degraded to fallback")
		return Fallback(title, hostname)
	}
	return result.(Classification)
}

func (c *Classifier) classifyExternal(ctx context.Context, rawURL, title, hostname string, extract Extractor) (Classification, error) {
	text, err := extract(ctx)
	if err != nil {
		return Classification{}, fmt.Errorf("extract page text: %w", err)
	}
	if len(text) > c.snippetChars {
		text = text[:c.snippetChars]
	}

	raw, err := c.completer.Complete(ctx, classificationPrompt(rawURL, title, text))
	if err != nil {
		return Classification{}, fmt.Errorf("model call: %w", err)
	}

	data, err := parseClassification(raw, title, hostname)
	if err != nil {
		return Classification{}, err
	}
	data.Source = SourceAI

	if err := c.cache.Put(ctx, hostname, data); err != nil {
		// A cache write failure must not fail the classification.
		c.log.Warn().Err(err).Str("hostname", hostname).Msg("cache write failed")
	}

	return data, nil
}

func classificationPrompt(rawURL, title, snippet string) string {
	return fmt.Sprintf(`Analyze this webpage and classify it. Respond ONLY with valid JSON, no other text:

URL: %s
Title: %s
Content snippet: %s

Response format:
{
  "topic": "brief topic (max 30 chars)",
  "difficulty": "easy/medium/hard",
  "category": "work/educational/entertainment/social/news/shopping/other",
  "isDistraction": true/false
}`, rawURL, title, snippet)
}

// jsonObjectRe finds the first JSON object in the model's free-text answer.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassification extracts the classification fields from the raw model
// response. Unknown category/difficulty values are rejected so a confused
// model cannot pollute the cache.
func parseClassification(raw, title, hostname string) (Classification, error) {
	obj := jsonObjectRe.FindString(raw)
	if obj == "" || !gjson.Valid(obj) {
		return Classification{}, fmt.Errorf("no JSON object in model response")
	}

	topic := strings.TrimSpace(gjson.Get(obj, "topic").String())
	if topic == "" {
		topic = title
	}
	if topic == "" {
		topic = hostname
	}
	if len(topic) > topicMaxChars {
		topic = topic[:topicMaxChars]
	}

	category := gjson.Get(obj, "category").String()
	if !validCategory(category) {
		return Classification{}, fmt.Errorf("model returned unknown category %q", category)
	}
	difficulty := gjson.Get(obj, "difficulty").String()
	if !validDifficulty(difficulty) {
		return Classification{}, fmt.Errorf("model returned unknown difficulty %q", difficulty)
	}

	return Classification{
		Topic:         topic,
		Category:      category,
		Difficulty:    difficulty,
		IsDistraction: gjson.Get(obj, "isDistraction").Bool(),
	}, nil
}

// Cache exposes the classifier's cache, mainly so reset can clear it.
func (c *Classifier) Cache() *Cache {
	return c.cache
}
