package profile

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. GTS_ENHANCER_API_KEY.
const EnvPrefix = "GTS"

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// Version is the current version of the assistant
	Version string

	Chatbot  ChatbotProfile
	Session  SessionProfile
	Enhancer EnhancerProfile
}

// ChatbotProfile holds the runtime knobs of the orchestrator.
type ChatbotProfile struct {
	MinConfidence          float64
	MaxSuggestions         int
	EnableContextAwareness bool
	EnableFuzzyMatching    bool
	DebugMode              bool
	EnhanceBelow           float64
}

// SessionProfile holds the context store limits.
type SessionProfile struct {
	MaxHistory      int
	ContextTTL      time.Duration
	CleanupInterval time.Duration
}

// EnhancerProfile configures the optional language model collaborator.
type EnhancerProfile struct {
	Enabled       bool
	Provider      string // GTS_ENHANCER_PROVIDER (default: openai)
	BaseURL       string // GTS_ENHANCER_BASE_URL (default: https://api.openai.com/v1)
	APIKey        string // GTS_ENHANCER_API_KEY
	Model         string // GTS_ENHANCER_MODEL (default: gpt-4o-mini)
	Mode          string // replace or prefix
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	MaxRetries    int           // attempts per call, 0 uses the enhancer default
	RetryBackoff  time.Duration // first retry wait, doubled per attempt
	MaxConcurrent int64
	RatePerSecond float64
	Burst         int
	CacheSize     int
	CacheTTL      time.Duration
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("chatbot.min_confidence", 0.4)
	v.SetDefault("chatbot.max_suggestions", 3)
	v.SetDefault("chatbot.enable_context_awareness", true)
	v.SetDefault("chatbot.enable_fuzzy_matching", true)
	v.SetDefault("chatbot.debug_mode", false)
	v.SetDefault("chatbot.enhance_below", 0.4)

	v.SetDefault("session.max_history", 20)
	v.SetDefault("session.context_ttl", 30*time.Minute)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	v.SetDefault("enhancer.enabled", false)
	v.SetDefault("enhancer.provider", "openai")
	v.SetDefault("enhancer.base_url", "https://api.openai.com/v1")
	v.SetDefault("enhancer.api_key", "")
	v.SetDefault("enhancer.model", "gpt-4o-mini")
	v.SetDefault("enhancer.mode", "replace")
	v.SetDefault("enhancer.max_tokens", 256)
	v.SetDefault("enhancer.temperature", 0.3)
	v.SetDefault("enhancer.timeout", 8*time.Second)
	v.SetDefault("enhancer.max_retries", 2)
	v.SetDefault("enhancer.retry_backoff", time.Second)
	v.SetDefault("enhancer.max_concurrent", 4)
	v.SetDefault("enhancer.rate_per_second", 0.5)
	v.SetDefault("enhancer.burst", 3)
	v.SetDefault("enhancer.cache_size", 500)
	v.SetDefault("enhancer.cache_ttl", 10*time.Minute)
}

// NewViper returns a viper instance reading GTS_* variables and, when
// configFile is set, that YAML file.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
	} else {
		v.SetConfigName("gts-assistant")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	return v
}

// Load reads the configuration file, if any, and builds a profile from v.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (*Profile, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		slog.Debug("no config file found, using defaults and environment")
	}
	return FromViper(v), nil
}

// FromViper maps the keys of v onto a profile.
func FromViper(v *viper.Viper) *Profile {
	return &Profile{
		Mode:     v.GetString("mode"),
		LogLevel: v.GetString("log_level"),
		Chatbot: ChatbotProfile{
			MinConfidence:          v.GetFloat64("chatbot.min_confidence"),
			MaxSuggestions:         v.GetInt("chatbot.max_suggestions"),
			EnableContextAwareness: v.GetBool("chatbot.enable_context_awareness"),
			EnableFuzzyMatching:    v.GetBool("chatbot.enable_fuzzy_matching"),
			DebugMode:              v.GetBool("chatbot.debug_mode"),
			EnhanceBelow:           v.GetFloat64("chatbot.enhance_below"),
		},
		Session: SessionProfile{
			MaxHistory:      v.GetInt("session.max_history"),
			ContextTTL:      v.GetDuration("session.context_ttl"),
			CleanupInterval: v.GetDuration("session.cleanup_interval"),
		},
		Enhancer: EnhancerProfile{
			Enabled:       v.GetBool("enhancer.enabled"),
			Provider:      v.GetString("enhancer.provider"),
			BaseURL:       v.GetString("enhancer.base_url"),
			APIKey:        v.GetString("enhancer.api_key"),
			Model:         v.GetString("enhancer.model"),
			Mode:          v.GetString("enhancer.mode"),
			MaxTokens:     v.GetInt("enhancer.max_tokens"),
			Temperature:   v.GetFloat64("enhancer.temperature"),
			Timeout:       v.GetDuration("enhancer.timeout"),
			MaxRetries:    v.GetInt("enhancer.max_retries"),
			RetryBackoff:  v.GetDuration("enhancer.retry_backoff"),
			MaxConcurrent: v.GetInt64("enhancer.max_concurrent"),
			RatePerSecond: v.GetFloat64("enhancer.rate_per_second"),
			Burst:         v.GetInt("enhancer.burst"),
			CacheSize:     v.GetInt("enhancer.cache_size"),
			CacheTTL:      v.GetDuration("enhancer.cache_ttl"),
		},
	}
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsEnhancerEnabled returns true if the enhancer is enabled and has an API key.
func (p *Profile) IsEnhancerEnabled() bool {
	return p.Enhancer.Enabled && p.Enhancer.APIKey != ""
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (p *Profile) SlogLevel() slog.Level {
	switch strings.ToLower(p.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	c := p.Chatbot
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.Errorf("chatbot.min_confidence must be within [0, 1], got %v", c.MinConfidence)
	}
	if c.EnhanceBelow < 0 || c.EnhanceBelow > 1 {
		return errors.Errorf("chatbot.enhance_below must be within [0, 1], got %v", c.EnhanceBelow)
	}
	if c.MaxSuggestions < 0 {
		return errors.Errorf("chatbot.max_suggestions must not be negative, got %d", c.MaxSuggestions)
	}

	s := p.Session
	if s.MaxHistory <= 0 {
		return errors.Errorf("session.max_history must be positive, got %d", s.MaxHistory)
	}
	if s.ContextTTL <= 0 || s.CleanupInterval <= 0 {
		return errors.New("session.context_ttl and session.cleanup_interval must be positive")
	}

	if p.Enhancer.Enabled {
		e := p.Enhancer
		if e.Provider != "openai" {
			return errors.Errorf("unsupported enhancer provider %q", e.Provider)
		}
		if e.APIKey == "" {
			return errors.New("enhancer.api_key is required when the enhancer is enabled")
		}
		if e.Timeout <= 0 {
			return errors.Errorf("enhancer.timeout must be positive, got %v", e.Timeout)
		}
		if e.Temperature < 0 || e.Temperature > 2 {
			return errors.Errorf("enhancer.temperature must be within [0, 2], got %v", e.Temperature)
		}
		if e.MaxRetries < 0 || e.RetryBackoff < 0 || e.CacheSize < 0 {
			return errors.New("enhancer.max_retries, enhancer.retry_backoff and enhancer.cache_size must not be negative")
		}
	}
	return nil
}
