package chatbot

import (
	"fmt"
	"time"

	"github.com/hans919/gts-assistant/plugin/ai/session"
	"github.com/hans919/gts-assistant/plugin/ai/timeout"
)

const (
	// DefaultMinConfidence is the confidence a matched intent needs to be answered directly.
	DefaultMinConfidence = 0.4
	// DefaultMaxSuggestions caps related questions attached to a direct answer.
	DefaultMaxSuggestions = 3
	// DefaultEnhanceBelow is the confidence under which the enhancer is consulted.
	DefaultEnhanceBelow = 0.4
)

// Config is the runtime configuration of the chatbot service.
type Config struct {
	MinConfidence          float64       `json:"min_confidence"`
	MaxSuggestions         int           `json:"max_suggestions"`
	EnableContextAwareness bool          `json:"enable_context_awareness"`
	EnableFuzzyMatching    bool          `json:"enable_fuzzy_matching"`
	DebugMode              bool          `json:"debug_mode"`
	EnhanceBelow           float64       `json:"enhance_below"`
	EnhancerTimeout        time.Duration `json:"enhancer_timeout"`

	// Construction-only settings.
	Session         session.Config `json:"session"`
	StartCleanupJob bool           `json:"start_cleanup_job"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence:          DefaultMinConfidence,
		MaxSuggestions:         DefaultMaxSuggestions,
		EnableContextAwareness: true,
		EnableFuzzyMatching:    true,
		DebugMode:              false,
		EnhanceBelow:           DefaultEnhanceBelow,
		EnhancerTimeout:        timeout.EnhancerTimeout,
		Session:                session.DefaultConfig(),
		StartCleanupJob:        true,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0, 1], got %v", c.MinConfidence)
	}
	if c.MaxSuggestions < 0 {
		return fmt.Errorf("max suggestions must not be negative, got %d", c.MaxSuggestions)
	}
	if c.EnhanceBelow < 0 || c.EnhanceBelow > 1 {
		return fmt.Errorf("enhance threshold must be within [0, 1], got %v", c.EnhanceBelow)
	}
	if c.EnhancerTimeout <= 0 {
		return fmt.Errorf("enhancer timeout must be positive, got %v", c.EnhancerTimeout)
	}
	return nil
}
