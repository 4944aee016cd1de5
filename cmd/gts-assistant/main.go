package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hans919/gts-assistant/internal/profile"
	"github.com/hans919/gts-assistant/plugin/ai/session"
	"github.com/hans919/gts-assistant/server/ai"
	"github.com/hans919/gts-assistant/server/service/chatbot"
)

// Set by ldflags at build time.
var version = "dev"

var (
	cfgFile string
	debug   bool
	prof    *profile.Profile
)

var rootCmd = &cobra.Command{
	Use:   "gts-assistant",
	Short: "Support assistant of the graduate tracking portal",
	Long: `gts-assistant answers questions about the graduate tracking portal:
the employment tracer survey, profiles, jobs, events, resumes and the
alumni network. Answers come from a rule-based intent matcher and a
curated knowledge base; an optional language model can polish answers
the rules are unsure about.

Configuration is read from GTS_* environment variables and an optional
YAML file (./gts-assistant.yaml or --config).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		p, err := profile.Load(profile.NewViper(cfgFile))
		if err != nil {
			return err
		}
		p.Version = version
		if debug || p.Chatbot.DebugMode {
			p.LogLevel = "debug"
		}
		if err := p.Validate(); err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: p.SlogLevel(),
		})))
		prof = p
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
}

// newService builds the chatbot from the loaded profile. The returned func
// releases the service and the enhancer.
func newService(p *profile.Profile, startCleanup bool) (*chatbot.Service, func(), error) {
	cfg := chatbot.DefaultConfig()
	cfg.MinConfidence = p.Chatbot.MinConfidence
	cfg.MaxSuggestions = p.Chatbot.MaxSuggestions
	cfg.EnableContextAwareness = p.Chatbot.EnableContextAwareness
	cfg.EnableFuzzyMatching = p.Chatbot.EnableFuzzyMatching
	cfg.DebugMode = p.Chatbot.DebugMode || debug
	cfg.EnhanceBelow = p.Chatbot.EnhanceBelow
	if p.Enhancer.Timeout > 0 {
		cfg.EnhancerTimeout = p.Enhancer.Timeout
	}
	cfg.Session = session.Config{
		MaxHistory:      p.Session.MaxHistory,
		ContextTTL:      p.Session.ContextTTL,
		CleanupInterval: p.Session.CleanupInterval,
	}
	cfg.StartCleanupJob = startCleanup

	var (
		opts    []chatbot.Option
		closers []func()
	)
	if p.IsEnhancerEnabled() {
		enhancerCfg, err := enhancerConfig(p)
		if err != nil {
			return nil, nil, err
		}
		enhancer, err := ai.NewOpenAIEnhancer(enhancerCfg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, chatbot.WithEnhancer(enhancer))
		closers = append(closers, enhancer.Close)
		slog.Info("enhancer enabled", "provider", p.Enhancer.Provider, "model", p.Enhancer.Model)
	}

	svc, err := chatbot.NewService(cfg, opts...)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}
	return svc, func() {
		svc.Close()
		for _, c := range closers {
			c()
		}
	}, nil
}

// enhancerConfig maps the enhancer profile onto the client configuration.
func enhancerConfig(p *profile.Profile) (*ai.Config, error) {
	mode, err := ai.ParseMode(p.Enhancer.Mode)
	if err != nil {
		return nil, err
	}
	return &ai.Config{
		BaseURL:       p.Enhancer.BaseURL,
		APIKey:        p.Enhancer.APIKey,
		Model:         p.Enhancer.Model,
		MaxTokens:     p.Enhancer.MaxTokens,
		Temperature:   float32(p.Enhancer.Temperature),
		Mode:          mode,
		MaxRetries:    p.Enhancer.MaxRetries,
		RetryBackoff:  p.Enhancer.RetryBackoff,
		MaxConcurrent: p.Enhancer.MaxConcurrent,
		RatePerSecond: p.Enhancer.RatePerSecond,
		Burst:         p.Enhancer.Burst,
		CacheSize:     p.Enhancer.CacheSize,
		CacheTTL:      p.Enhancer.CacheTTL,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
