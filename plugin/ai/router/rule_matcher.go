package router

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// MatcherConfig holds the scoring weights and thresholds of the rule matcher.
type MatcherConfig struct {
	Floor            float64 // best confidence must exceed this (default: 0.3)
	KeywordWeight    float64 // weight of the keyword overlap ratio (default: 0.7)
	PatternWeight    float64 // weight of the first qualifying pattern similarity (default: 0.3)
	PatternThreshold float64 // similarity a pattern must exceed to count (default: 0.6)
	ContextBonus     float64 // flat bonus when continuing a declared source intent (default: 0.2)
	FuzzyMaxDistance int     // max edit distance for a fuzzy keyword hit (default: 2)
	FuzzyMinTokenLen int     // min token length considered for fuzzy hits (default: 4)
	FuzzyMatching    bool    // initial fuzzy matching state
}

// DefaultMatcherConfig returns the default scoring configuration.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Floor:            0.3,
		KeywordWeight:    0.7,
		PatternWeight:    0.3,
		PatternThreshold: 0.6,
		ContextBonus:     0.2,
		FuzzyMaxDistance: 2,
		FuzzyMinTokenLen: 4,
		FuzzyMatching:    true,
	}
}

// Candidate is the score breakdown of one intent for one input.
type Candidate struct {
	Intent            string   `json:"intent"`
	Confidence        float64  `json:"confidence"`
	MatchedKeywords   []string `json:"matched_keywords,omitempty"`
	MatchedPattern    string   `json:"matched_pattern,omitempty"`
	PatternSimilarity float64  `json:"pattern_similarity,omitempty"`
	ContextBonus      bool     `json:"context_bonus,omitempty"`
	Eliminated        bool     `json:"eliminated,omitempty"`
}

// RuleMatcher scores normalized input against every intent of a registry.
// It is safe for concurrent use; only the fuzzy toggle is mutable.
type RuleMatcher struct {
	registry *Registry
	config   MatcherConfig
	fuzzy    atomic.Bool
}

// NewRuleMatcher creates a rule matcher over the given registry.
// Zero-valued weights fall back to the defaults.
func NewRuleMatcher(registry *Registry, cfg MatcherConfig) *RuleMatcher {
	def := DefaultMatcherConfig()
	if cfg.Floor <= 0 {
		cfg.Floor = def.Floor
	}
	if cfg.KeywordWeight <= 0 {
		cfg.KeywordWeight = def.KeywordWeight
	}
	if cfg.PatternWeight <= 0 {
		cfg.PatternWeight = def.PatternWeight
	}
	if cfg.PatternThreshold <= 0 {
		cfg.PatternThreshold = def.PatternThreshold
	}
	if cfg.ContextBonus <= 0 {
		cfg.ContextBonus = def.ContextBonus
	}
	if cfg.FuzzyMaxDistance <= 0 {
		cfg.FuzzyMaxDistance = def.FuzzyMaxDistance
	}
	if cfg.FuzzyMinTokenLen <= 0 {
		cfg.FuzzyMinTokenLen = def.FuzzyMinTokenLen
	}

	m := &RuleMatcher{
		registry: registry,
		config:   cfg,
	}
	m.fuzzy.Store(cfg.FuzzyMatching)
	return m
}

// Registry returns the registry the matcher scores against.
func (m *RuleMatcher) Registry() *Registry {
	return m.registry
}

// SetFuzzyMatching toggles edit-distance keyword matching at runtime.
func (m *RuleMatcher) SetFuzzyMatching(enabled bool) {
	m.fuzzy.Store(enabled)
}

// FuzzyMatching reports whether edit-distance keyword matching is enabled.
func (m *RuleMatcher) FuzzyMatching() bool {
	return m.fuzzy.Load()
}

// DetectIntent returns the best intent for input, or nil when the best
// confidence does not exceed the floor.
func (m *RuleMatcher) DetectIntent(input, previousIntent string) *MatchResult {
	start := time.Now()
	normalized := Normalize(input)
	tokens := Tokenize(normalized)
	fuzzy := m.fuzzy.Load()

	var (
		best     *Intent
		bestConf float64
		bestKws  []string
	)
	for _, intent := range m.registry.intents {
		c := m.score(intent, normalized, tokens, previousIntent, fuzzy)
		if c.Eliminated {
			continue
		}
		// Strict comparison: ties keep the intent declared first.
		if c.Confidence > bestConf {
			best = intent
			bestConf = c.Confidence
			bestKws = c.MatchedKeywords
		}
	}

	entities := ExtractEntities(normalized)

	if best == nil || bestConf <= m.config.Floor {
		slog.Debug("no intent above floor",
			"input", truncate(normalized, 50),
			"best_confidence", bestConf,
			"latency_ms", time.Since(start).Milliseconds())
		return nil
	}

	slog.Debug("intent classified by rule matcher",
		"input", truncate(normalized, 50),
		"intent", best.Name,
		"confidence", bestConf,
		"latency_ms", time.Since(start).Milliseconds())

	return &MatchResult{
		Intent:          best,
		Confidence:      bestConf,
		MatchedKeywords: bestKws,
		Entities:        entities,
	}
}

// Score returns the breakdown for every intent in registry order.
// Used for diagnostics; it does not apply the floor.
func (m *RuleMatcher) Score(input, previousIntent string) []Candidate {
	normalized := Normalize(input)
	tokens := Tokenize(normalized)
	fuzzy := m.fuzzy.Load()

	out := make([]Candidate, 0, len(m.registry.intents))
	for _, intent := range m.registry.intents {
		out = append(out, m.score(intent, normalized, tokens, previousIntent, fuzzy))
	}
	return out
}

// score computes the confidence of a single intent.
func (m *RuleMatcher) score(intent *Intent, normalized string, tokens []string, previousIntent string, fuzzy bool) Candidate {
	c := Candidate{Intent: intent.Name}

	for _, req := range intent.RequiredKeywords {
		if !strings.Contains(normalized, req) {
			c.Eliminated = true
			return c
		}
	}

	for _, kw := range intent.Keywords {
		if strings.Contains(normalized, kw) || (fuzzy && m.fuzzyHit(kw, tokens)) {
			c.MatchedKeywords = append(c.MatchedKeywords, kw)
		}
	}
	confidence := float64(len(c.MatchedKeywords)) / float64(len(intent.Keywords)) * m.config.KeywordWeight

	// Only the first pattern above the threshold counts, in declaration order.
	for _, pattern := range intent.Patterns {
		sim := Similarity(normalized, pattern)
		if sim > m.config.PatternThreshold {
			confidence += sim * m.config.PatternWeight
			c.MatchedPattern = pattern
			c.PatternSimilarity = sim
			break
		}
	}

	if intent.IsFollowUpOf(previousIntent) {
		confidence += m.config.ContextBonus
		c.ContextBonus = true
	}

	c.Confidence = clamp01(confidence)
	return c
}

// fuzzyHit reports whether any sufficiently long token is within the edit budget of kw.
func (m *RuleMatcher) fuzzyHit(kw string, tokens []string) bool {
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < m.config.FuzzyMinTokenLen {
			continue
		}
		if EditDistance(tok, kw) <= m.config.FuzzyMaxDistance {
			return true
		}
	}
	return false
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
