package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/hans919/gts-assistant/plugin/ai/cache"
	"github.com/hans919/gts-assistant/plugin/ai/timeout"
	aierrors "github.com/hans919/gts-assistant/server/internal/errors"
	"github.com/hans919/gts-assistant/server/middleware"
)

const systemPrompt = `You are the help assistant of a university graduate tracking portal.
Graduates use the portal to answer the employment tracer survey, keep their profile and
employment status current, browse jobs and events, build resumes and find alumni.
You receive the user's question and a draft answer produced by a rule engine that was not
confident. Write a short, friendly answer (at most 4 sentences). Only describe portal
features mentioned in the draft or listed above; if unsure, suggest contacting support.`

// Config holds the enhancer configuration.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxTokens     int
	Temperature   float32
	Mode          Mode
	MaxRetries    int
	RetryBackoff  time.Duration // first retry wait, doubled per attempt
	MaxConcurrent int64
	RatePerSecond float64 // per session
	Burst         int
	CacheSize     int
	CacheTTL      time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.openai.com/v1",
		Model:         "gpt-4o-mini",
		MaxTokens:     256,
		Temperature:   0.3,
		Mode:          ModeReplace,
		MaxRetries:    2,
		RetryBackoff:  time.Second,
		MaxConcurrent: 4,
		RatePerSecond: 0.5,
		Burst:         3,
		CacheSize:     500,
		CacheTTL:      10 * time.Minute,
	}
}

// OpenAIEnhancer implements Enhancer on an OpenAI-compatible chat completion API.
// Concurrent calls are bounded by a semaphore and each session by a token bucket;
// answers are cached per session and (intent, text, draft), since the prompt
// carries the session history.
type OpenAIEnhancer struct {
	client  *openai.Client
	config  *Config
	sem     *semaphore.Weighted
	limiter *middleware.RateLimiter
	cache   *cache.Service[Enhancement]
}

var (
	_ Enhancer         = (*OpenAIEnhancer)(nil)
	_ SessionForgetter = (*OpenAIEnhancer)(nil)
)

// NewOpenAIEnhancer creates an enhancer. Unset values take the defaults.
// Call Close to release the cache loop.
func NewOpenAIEnhancer(cfg *Config) (*OpenAIEnhancer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, aierrors.InvalidArgument("enhancer API key is required")
	}

	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEnhancer{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		limiter: middleware.NewRateLimiter(cfg.RatePerSecond, cfg.Burst),
		cache: cache.NewService[Enhancement](cache.ServiceConfig{
			Capacity:   cfg.CacheSize,
			DefaultTTL: cfg.CacheTTL,
		}),
	}, nil
}

// Close stops the cache cleanup loop.
func (e *OpenAIEnhancer) Close() {
	e.cache.Close()
}

// ForgetSession drops the rate bucket and cached answers of a session.
func (e *OpenAIEnhancer) ForgetSession(sessionID string) {
	e.limiter.Forget(sessionID)
	dropped := e.cache.Invalidate(cachePrefix(sessionID) + "*")
	slog.Debug("enhancer session state released",
		"session_id", sessionID,
		"cached_answers", dropped,
		"tracked_sessions", e.limiter.Len())
}

// Enhance asks the model to improve the draft answer.
func (e *OpenAIEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*Enhancement, error) {
	start := time.Now()
	key := cacheKey(req)
	if cached, ok := e.cache.Get(key); ok {
		slog.Debug("enhancement served from cache", "session_id", req.SessionID, "intent", req.Intent)
		return &cached, nil
	}

	if !e.limiter.Allow(req.SessionID) {
		return nil, aierrors.RateLimitExceeded("enhancer rate limit exceeded").
			WithContext("session_id", req.SessionID)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, timeout.EnhancerAcquireTimeout)
	defer cancel()
	if err := e.sem.Acquire(acquireCtx, 1); err != nil {
		return nil, aierrors.EnhancerUnavailable("enhancer busy", err)
	}
	defer e.sem.Release(1)

	var content string
	err := e.doWithRetry(ctx, func() error {
		resp, err := e.client.CreateChatCompletion(ctx, e.buildRequest(req))
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return stderrors.New("empty chat response")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, aierrors.Timeout("enhancer call timed out", err)
		}
		return nil, aierrors.EnhancerUnavailable("enhancer call failed", err)
	}
	if content == "" {
		return nil, aierrors.EnhancerUnavailable("enhancer returned no content", nil)
	}

	out := Enhancement{Content: content, Mode: e.config.Mode}
	e.cache.Set(key, out, 0)

	slog.Debug("enhancement generated",
		"session_id", req.SessionID,
		"intent", req.Intent,
		"model", e.config.Model,
		"latency_ms", time.Since(start).Milliseconds())

	return &out, nil
}

func (e *OpenAIEnhancer) buildRequest(req EnhanceRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	history := req.History
	if len(history) > timeout.MaxEnhancerHistory {
		history = history[len(history)-timeout.MaxEnhancerHistory:]
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "Question: " + req.UserText + "\n\nDraft answer: " + req.Draft,
	})

	return openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Messages:    messages,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}
}

// doWithRetry executes a function with exponential backoff retry.
func (e *OpenAIEnhancer) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == e.config.MaxRetries-1 {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * e.config.RetryBackoff
		slog.Debug("enhancer request failed, retrying",
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func cachePrefix(sessionID string) string {
	return "enhance:" + sessionID + ":"
}

// cacheKey hashes the inputs that determine the model answer.
func cacheKey(req EnhanceRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Intent))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(req.UserText))))
	h.Write([]byte{0})
	h.Write([]byte(req.Draft))
	return cachePrefix(req.SessionID) + hex.EncodeToString(h.Sum(nil))
}
