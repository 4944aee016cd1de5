// Package chatbot provides the support assistant of the graduate tracking portal.
//
// Key features:
//   - Rule-based intent detection with a knowledge-backed answer per intent
//   - Fallback chain: knowledge search, follow-up menu, general help
//   - Per-session conversation context with expiry and analytics
//   - Optional enhancement of low-confidence answers by a language model
//   - Failure containment: every message gets a response, sessions survive errors
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hans919/gts-assistant/plugin/ai/knowledge"
	"github.com/hans919/gts-assistant/plugin/ai/metrics"
	"github.com/hans919/gts-assistant/plugin/ai/router"
	"github.com/hans919/gts-assistant/plugin/ai/session"
	"github.com/hans919/gts-assistant/plugin/ai/timeout"
	"github.com/hans919/gts-assistant/server/ai"
	aierrors "github.com/hans919/gts-assistant/server/internal/errors"
	"github.com/hans919/gts-assistant/server/internal/observability"
)

// Option customizes a Service at construction.
type Option func(*Service)

// WithRegistry replaces the embedded intent catalog.
func WithRegistry(registry *router.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithMatcherConfig overrides the scoring weights of the rule matcher.
func WithMatcherConfig(cfg router.MatcherConfig) Option {
	return func(s *Service) { s.matcherConfig = cfg }
}

// WithKnowledgeBase replaces the embedded knowledge catalog.
func WithKnowledgeBase(kb *knowledge.Base) Option {
	return func(s *Service) { s.kb = kb }
}

// WithStore uses an existing context store instead of creating one.
func WithStore(store *session.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithEnhancer enables enhancement of low-confidence answers.
func WithEnhancer(enhancer ai.Enhancer) Option {
	return func(s *Service) { s.enhancer = enhancer }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics replaces the in-memory metrics aggregator.
func WithMetrics(agg *metrics.Aggregator) Option {
	return func(s *Service) { s.metrics = agg }
}

// Service implements Chatbot.
type Service struct {
	mu     sync.RWMutex
	config Config

	registry      *router.Registry
	matcherConfig router.MatcherConfig
	matcher       *router.RuleMatcher
	kb            *knowledge.Base
	store         *session.Store
	enhancer      ai.Enhancer
	metrics       *metrics.Aggregator
	logger        *slog.Logger
	sessions      *sessionLocks

	cleanup   *session.CleanupJob
	closeOnce sync.Once
}

var _ Chatbot = (*Service)(nil)

// NewService creates the assistant. Catalog problems are reported here and
// never at request time. Call Close to stop the background cleanup.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, aierrors.Wrap(err, aierrors.ErrCodeInvalidArgument, "invalid chatbot config")
	}

	s := &Service{
		config:        cfg,
		matcherConfig: router.DefaultMatcherConfig(),
		sessions:      newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		registry, err := router.DefaultRegistry()
		if err != nil {
			return nil, aierrors.CatalogInvalid("intents", err)
		}
		s.registry = registry
	}
	if s.kb == nil {
		kb, err := knowledge.DefaultBase()
		if err != nil {
			return nil, aierrors.CatalogInvalid("knowledge", err)
		}
		s.kb = kb
	}
	if s.store == nil {
		s.store = session.NewStore(cfg.Session)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewAggregator(0)
	}

	if forgetter, ok := s.enhancer.(ai.SessionForgetter); ok {
		s.store.OnEvict(forgetter.ForgetSession)
	}

	s.matcherConfig.FuzzyMatching = cfg.EnableFuzzyMatching
	s.matcher = router.NewRuleMatcher(s.registry, s.matcherConfig)

	for _, intent := range s.registry.Intents() {
		if _, ok := s.kb.GetByIntent(intent.Name); !ok {
			s.logger.Warn("intent has no knowledge entry", "intent", intent.Name)
		}
	}

	s.cleanup = session.NewCleanupJob(s.store, s.store.Config().CleanupInterval)
	if cfg.StartCleanupJob {
		s.cleanup.Start(context.Background())
	}

	s.logger.Info("chatbot service created",
		"intents", s.registry.Len(),
		"knowledge_entries", s.kb.Len(),
		"enhancer", s.enhancer != nil,
		"fuzzy_matching", cfg.EnableFuzzyMatching)

	return s, nil
}

// Close stops the cleanup job. It is safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.cleanup.Stop()
	})
}

// Store exposes the context store backing the service.
func (s *Service) Store() *session.Store {
	return s.store
}

// KnowledgeBase exposes the knowledge catalog backing the service.
func (s *Service) KnowledgeBase() *knowledge.Base {
	return s.kb
}

// ProcessMessage answers one user message. See Chatbot.
// Messages of one session are processed one at a time.
func (s *Service) ProcessMessage(ctx context.Context, text, sessionID, userID string) (resp *Response) {
	cfg := s.Config()
	reqCtx := observability.NewRequestContext(s.logger, sessionID, userID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	if strings.TrimSpace(sessionID) != "" {
		unlock := s.sessions.lock(sessionID)
		defer unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			resp = s.fail(reqCtx, cfg, sessionID,
				aierrors.ProcessingFailed("panic while processing message", fmt.Errorf("%v", r)))
		}
		s.finish(reqCtx, cfg, text, resp)
	}()

	var err error
	resp, err = s.process(ctx, reqCtx, cfg, text, sessionID, userID)
	if err != nil {
		resp = s.fail(reqCtx, cfg, sessionID, err)
	}
	return resp
}

func (s *Service) process(ctx context.Context, reqCtx *observability.RequestContext, cfg Config, text, sessionID, userID string) (*Response, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, aierrors.InvalidArgument("session id is required")
	}
	text = truncateRunes(strings.TrimSpace(text), timeout.MaxInputLength)

	// Captured before the inbound message moves it forward.
	previousIntent := s.store.GetContext(sessionID, userID).PreviousIntent
	contextIntent := ""
	if cfg.EnableContextAwareness {
		contextIntent = previousIntent
	}

	match := s.matcher.DetectIntent(text, contextIntent)

	inbound := session.Message{Role: session.RoleUser, Content: text}
	if match != nil {
		inbound.Metadata = &session.MessageMetadata{
			Intent:     match.Intent.Name,
			Confidence: match.Confidence,
			Entities:   match.Entities,
		}
		reqCtx.SetIntent(match.Intent.Name)
	}
	s.store.AddMessage(sessionID, inbound)

	resp := s.respond(reqCtx, cfg, text, match, previousIntent)

	if s.enhancer != nil && resp.Confidence < cfg.EnhanceBelow {
		s.applyEnhancement(ctx, reqCtx, cfg, sessionID, text, resp)
	}

	s.store.AddMessage(sessionID, session.Message{
		Role:    session.RoleAssistant,
		Content: resp.Content,
		Metadata: &session.MessageMetadata{
			Intent:     resp.Intent,
			Confidence: resp.Confidence,
		},
	})

	if cfg.DebugMode {
		resp.Debug = &Debug{
			Branch:         resp.branch,
			PreviousIntent: previousIntent,
			LatencyMS:      reqCtx.DurationMs(),
		}
		if match != nil {
			resp.Debug.MatchedIntent = match.Intent.Name
			resp.Debug.MatchedKeywords = match.MatchedKeywords
			resp.Debug.RawConfidence = match.Confidence
			resp.Debug.Entities = match.Entities
		}
	}
	return resp, nil
}

// respond walks the fallback chain.
func (s *Service) respond(reqCtx *observability.RequestContext, cfg Config, text string, match *router.MatchResult, previousIntent string) *Response {
	if match != nil && match.Confidence >= cfg.MinConfidence {
		if entry, ok := s.kb.GetByIntent(match.Intent.Name); ok {
			return s.intentResponse(cfg, entry, match)
		}
		err := aierrors.KnowledgeMissing(match.Intent.Name)
		reqCtx.Warn("matched intent has no knowledge entry",
			slog.String(observability.LogFieldErrorCode, string(err.Code)))
	}

	if results := s.kb.Search(text); len(results) > 0 {
		return s.searchResponse(results)
	}

	if cfg.EnableContextAwareness && previousIntent != "" && session.LooksLikeFollowUp(text) {
		if entry, ok := s.kb.GetByIntent(previousIntent); ok && len(entry.Related) > 0 {
			return s.followUpResponse(cfg, entry)
		}
	}

	return generalHelpResponse()
}

func (s *Service) applyEnhancement(ctx context.Context, reqCtx *observability.RequestContext, cfg Config, sessionID, text string, resp *Response) {
	// History holds the inbound message last; the enhancer gets it as UserText.
	history := s.store.GetHistory(sessionID, timeout.MaxEnhancerHistory+1)
	if n := len(history); n > 0 {
		history = history[:n-1]
	}
	turns := make([]ai.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, ai.Turn{Role: string(msg.Role), Content: msg.Content})
	}

	start := time.Now()
	out, err := s.callEnhancer(ctx, cfg.EnhancerTimeout, ai.EnhanceRequest{
		SessionID:  sessionID,
		UserText:   text,
		Draft:      resp.Content,
		Intent:     resp.Intent,
		Confidence: resp.Confidence,
		History:    turns,
	})
	latency := time.Since(start)
	s.metrics.RecordEnhancerCall(latency, err == nil)

	if err != nil {
		reqCtx.Warn("enhancement skipped, keeping rule response",
			slog.String(observability.LogFieldErrorCode, string(aierrors.GetCodeFromError(err, aierrors.ErrCodeEnhancerUnavailable))),
			slog.String("error", err.Error()))
		return
	}
	if content := out.Apply(resp.Content); content != resp.Content {
		resp.Content = content
		resp.Enhanced = true
	}
	reqCtx.Debug("response enhanced",
		slog.Bool("applied", resp.Enhanced),
		slog.Int64("enhancer_latency_ms", latency.Milliseconds()))
}

// callEnhancer bounds the collaborator by d even if it ignores ctx.
func (s *Service) callEnhancer(ctx context.Context, d time.Duration, req ai.EnhanceRequest) (*ai.Enhancement, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		out *ai.Enhancement
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: aierrors.EnhancerUnavailable("enhancer panicked", fmt.Errorf("%v", r))}
			}
		}()
		out, err := s.enhancer.Enhance(ctx, req)
		ch <- result{out: out, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && r.out == nil {
			return nil, aierrors.EnhancerUnavailable("enhancer returned nothing", nil)
		}
		return r.out, r.err
	case <-ctx.Done():
		return nil, aierrors.Timeout("enhancer timed out", ctx.Err())
	}
}

// fail builds the apology and appends it to an addressable session.
func (s *Service) fail(reqCtx *observability.RequestContext, cfg Config, sessionID string, err error) *Response {
	reqCtx.Error("message processing failed", err,
		slog.String(observability.LogFieldErrorCode, string(aierrors.GetCodeFromError(err, aierrors.ErrCodeProcessingFailed))))

	resp := apologyResponse()
	if cfg.DebugMode {
		resp.Debug = &Debug{Branch: BranchError, LatencyMS: reqCtx.DurationMs()}
	}
	if strings.TrimSpace(sessionID) == "" {
		return resp
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				reqCtx.Error("failed to record apology", fmt.Errorf("%v", r))
			}
		}()
		s.store.AddMessage(sessionID, session.Message{
			Role:     session.RoleAssistant,
			Content:  resp.Content,
			Metadata: &session.MessageMetadata{Intent: resp.Intent, Confidence: resp.Confidence},
		})
	}()
	return resp
}

func (s *Service) finish(reqCtx *observability.RequestContext, cfg Config, text string, resp *Response) {
	if resp == nil {
		return
	}
	latency := reqCtx.Duration()
	s.metrics.RecordRequest(string(resp.branch), resp.Intent, latency, resp.branch != BranchError)

	// The request context logs the final intent.
	reqCtx.SetIntent(resp.Intent)
	attrs := []slog.Attr{
		slog.String(observability.LogFieldBranch, string(resp.branch)),
		slog.Float64(observability.LogFieldConfidence, resp.Confidence),
		slog.Int(observability.LogFieldMessageLen, utf8.RuneCountInString(text)),
		slog.Int64(observability.LogFieldDuration, latency.Milliseconds()),
	}
	if cfg.DebugMode {
		attrs = append(attrs, slog.String("input", truncateRunes(text, timeout.MaxTruncateLength)))
	}
	reqCtx.Info("message processed", attrs...)
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig applies fn to a copy of the configuration and installs it if valid.
func (s *Service) UpdateConfig(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config
	fn(&next)
	if err := next.Validate(); err != nil {
		return aierrors.Wrap(err, aierrors.ErrCodeInvalidArgument, "invalid chatbot config")
	}
	s.config = next
	s.matcher.SetFuzzyMatching(next.EnableFuzzyMatching)
	return nil
}

// MinConfidence returns the confidence a match needs to be answered directly.
func (s *Service) MinConfidence() float64 {
	return s.Config().MinConfidence
}

// SetMinConfidence sets the direct-answer threshold.
func (s *Service) SetMinConfidence(v float64) error {
	return s.UpdateConfig(func(c *Config) { c.MinConfidence = v })
}

// MaxSuggestions returns the suggestion cap of direct answers.
func (s *Service) MaxSuggestions() int {
	return s.Config().MaxSuggestions
}

// SetMaxSuggestions sets the suggestion cap of direct answers.
func (s *Service) SetMaxSuggestions(n int) error {
	return s.UpdateConfig(func(c *Config) { c.MaxSuggestions = n })
}

// FuzzyMatching reports whether fuzzy keyword matching is on.
func (s *Service) FuzzyMatching() bool {
	return s.Config().EnableFuzzyMatching
}

// SetFuzzyMatching toggles fuzzy keyword matching.
func (s *Service) SetFuzzyMatching(enabled bool) {
	_ = s.UpdateConfig(func(c *Config) { c.EnableFuzzyMatching = enabled })
}

// ContextAwareness reports whether previous intents influence matching and follow-ups.
func (s *Service) ContextAwareness() bool {
	return s.Config().EnableContextAwareness
}

// SetContextAwareness toggles context awareness.
func (s *Service) SetContextAwareness(enabled bool) {
	_ = s.UpdateConfig(func(c *Config) { c.EnableContextAwareness = enabled })
}

// DebugMode reports whether responses carry debug details.
func (s *Service) DebugMode() bool {
	return s.Config().DebugMode
}

// SetDebugMode toggles debug details on responses.
func (s *Service) SetDebugMode(enabled bool) {
	_ = s.UpdateConfig(func(c *Config) { c.DebugMode = enabled })
}

func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}
