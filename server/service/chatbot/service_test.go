package chatbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hans919/gts-assistant/plugin/ai/session"
	"github.com/hans919/gts-assistant/server/ai"
	aierrors "github.com/hans919/gts-assistant/server/internal/errors"
)

func newTestService(t *testing.T, mutate func(*Config), opts ...Option) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StartCleanupJob = false
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewService(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestProcessMessage_DirectAnswer(t *testing.T) {
	svc := newTestService(t, nil)
	entry, ok := svc.KnowledgeBase().GetByIntent("employment_survey_submit")
	require.True(t, ok)

	resp := svc.ProcessMessage(context.Background(), "How do I submit an employment survey?", "s1", "u1")

	assert.Equal(t, BranchIntent, resp.Branch())
	assert.Equal(t, "employment_survey_submit", resp.Intent)
	assert.GreaterOrEqual(t, resp.Confidence, 0.4)
	assert.Contains(t, resp.Content, entry.Answer)
	assert.Equal(t, entry.Related, resp.Suggestions)
	assert.NotEmpty(t, resp.QuickActions)
	assert.Equal(t, svc.KnowledgeBase().GetRelatedTopics("employment_survey_submit"), resp.RelatedTopics)
	assert.False(t, resp.Enhanced)
	assert.Nil(t, resp.Debug)
}

func TestProcessMessage_Thanks(t *testing.T) {
	svc := newTestService(t, nil)

	resp := svc.ProcessMessage(context.Background(), "Thank you", "s1", "")

	assert.Equal(t, "thanks", resp.Intent)
	assert.InDelta(t, 1.0, resp.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(resp.Content, "You're welcome"), resp.Content)
}

func TestProcessMessage_GeneralHelp(t *testing.T) {
	svc := newTestService(t, nil)

	resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")

	assert.Equal(t, BranchGeneralHelp, resp.Branch())
	assert.Equal(t, GeneralHelpIntent, resp.Intent)
	assert.InDelta(t, 0.3, resp.Confidence, 1e-9)
	assert.Equal(t, StarterSuggestions, resp.Suggestions)

	// Callers cannot mutate the shared starter list.
	resp.Suggestions[0] = "changed"
	assert.Equal(t, "How do I submit the employment survey?", StarterSuggestions[0])
}

func TestProcessMessage_SearchFallback(t *testing.T) {
	svc := newTestService(t, nil)

	resp := svc.ProcessMessage(context.Background(), "resume", "s1", "")

	assert.Equal(t, BranchSearch, resp.Branch())
	assert.Equal(t, "resume_create", resp.Intent)
	assert.InDelta(t, 0.5, resp.Confidence, 1e-9)
	assert.Contains(t, resp.Content, "How do I create a resume?")
	assert.Len(t, resp.Suggestions, 3)
	assert.NotContains(t, resp.Suggestions, "How do I create a resume?")
}

func TestProcessMessage_BelowMinConfidenceFallsThrough(t *testing.T) {
	svc := newTestService(t, nil)

	resp := svc.ProcessMessage(context.Background(), "where can i see my notifications", "s1", "")
	assert.Equal(t, BranchGeneralHelp, resp.Branch())

	// The inbound message is still tagged with the weak match.
	history := svc.Store().GetHistory("s1", 0)
	require.Len(t, history, 2)
	require.True(t, history[0].HasIntent())
	assert.Equal(t, "notification_view", history[0].Metadata.Intent)

	require.NoError(t, svc.SetMinConfidence(0.35))
	resp = svc.ProcessMessage(context.Background(), "where can i see my notifications", "s2", "")
	assert.Equal(t, BranchIntent, resp.Branch())
	assert.Equal(t, "notification_view", resp.Intent)
}

func TestProcessMessage_FollowUpMenu(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first := svc.ProcessMessage(ctx, "How do I submit an employment survey?", "s1", "")
	require.Equal(t, "employment_survey_submit", first.Intent)

	resp := svc.ProcessMessage(ctx, "Tell me more about it", "s1", "")

	assert.Equal(t, BranchFollowUp, resp.Branch())
	assert.Equal(t, "employment_survey_submit", resp.Intent)
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)
	assert.Contains(t, resp.Content, "1. Has my survey been submitted?")
	assert.Contains(t, resp.Content, "2. When is the survey deadline?")
	assert.Contains(t, resp.Content, "3. How do I update my employment status?")
	assert.Len(t, resp.Suggestions, 3)
}

func TestProcessMessage_FollowUpNeedsContextAwareness(t *testing.T) {
	svc := newTestService(t, func(c *Config) { c.EnableContextAwareness = false })
	ctx := context.Background()

	svc.ProcessMessage(ctx, "How do I submit an employment survey?", "s1", "")
	resp := svc.ProcessMessage(ctx, "Tell me more about it", "s1", "")

	assert.Equal(t, BranchGeneralHelp, resp.Branch())
}

func TestProcessMessage_EntityNotes(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		note  string
	}{
		{"location", "Show me job openings in Manila", "For opportunities in Manila"},
		{"multi-word location", "Show me job openings in New York", "For opportunities in New York,"},
		{"job type", "show me full-time job openings", "Looking for full-time positions?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := svc.ProcessMessage(ctx, tt.input, "s-"+tt.name, "")
			assert.Equal(t, "job_search", resp.Intent)
			assert.Contains(t, resp.Content, tt.note)
		})
	}
}

func TestProcessMessage_MaxSuggestions(t *testing.T) {
	svc := newTestService(t, func(c *Config) { c.MaxSuggestions = 1 })

	resp := svc.ProcessMessage(context.Background(), "How do I submit an employment survey?", "s1", "")
	assert.Equal(t, []string{"Has my survey been submitted?"}, resp.Suggestions)

	require.NoError(t, svc.SetMaxSuggestions(0))
	resp = svc.ProcessMessage(context.Background(), "How do I submit an employment survey?", "s1", "")
	assert.Empty(t, resp.Suggestions)
}

func TestProcessMessage_RecordsHistory(t *testing.T) {
	svc := newTestService(t, nil)

	svc.ProcessMessage(context.Background(), "How do I submit an employment survey?", "s1", "u1")

	history := svc.Store().GetHistory("s1", 0)
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, session.RoleAssistant, history[1].Role)
	assert.Equal(t, "employment_survey_submit", history[1].Metadata.Intent)

	c := svc.Store().GetContext("s1", "")
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "employment_survey_submit", c.PreviousIntent)
	assert.Equal(t, "employment", c.CurrentTopic)
}

func TestProcessMessage_TruncatesInput(t *testing.T) {
	svc := newTestService(t, nil)

	svc.ProcessMessage(context.Background(), strings.Repeat("a", 5000), "s1", "")

	history := svc.Store().GetHistory("s1", 0)
	require.Len(t, history, 2)
	assert.Len(t, history[0].Content, 1000)
}

func TestProcessMessage_MissingSession(t *testing.T) {
	svc := newTestService(t, nil)

	resp := svc.ProcessMessage(context.Background(), "hello", "  ", "")

	assert.Equal(t, BranchError, resp.Branch())
	assert.Equal(t, ErrorIntent, resp.Intent)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, 0, svc.Store().SessionCount())
}

func TestProcessMessage_PanicKeepsSession(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.ProcessMessage(ctx, "How do I submit an employment survey?", "s1", "")
	before := svc.Store().GetHistory("s1", 0)
	require.Len(t, before, 2)

	matcher := svc.matcher
	svc.matcher = nil
	resp := svc.ProcessMessage(ctx, "hello", "s1", "")
	svc.matcher = matcher

	assert.Equal(t, BranchError, resp.Branch())
	assert.Equal(t, apologyText, resp.Content)
	assert.Zero(t, resp.Confidence)

	after := svc.Store().GetHistory("s1", 0)
	require.Len(t, after, 3)
	assert.Equal(t, before, after[:2])
	assert.Equal(t, ErrorIntent, after[2].Metadata.Intent)

	// The session keeps working.
	resp = svc.ProcessMessage(ctx, "Thank you", "s1", "")
	assert.Equal(t, "thanks", resp.Intent)
}

func TestProcessMessage_Enhancer(t *testing.T) {
	t.Run("replaces low confidence answers", func(t *testing.T) {
		var got ai.EnhanceRequest
		enhancer := ai.EnhancerFunc(func(_ context.Context, req ai.EnhanceRequest) (*ai.Enhancement, error) {
			got = req
			return &ai.Enhancement{Content: "Start with the tracer survey.", Mode: ai.ModeReplace}, nil
		})
		svc := newTestService(t, nil, WithEnhancer(enhancer))

		svc.ProcessMessage(context.Background(), "hello", "s1", "")
		resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")

		assert.True(t, resp.Enhanced)
		assert.Equal(t, "Start with the tracer survey.", resp.Content)
		assert.Equal(t, GeneralHelpIntent, resp.Intent)
		assert.InDelta(t, 0.3, resp.Confidence, 1e-9)

		assert.Equal(t, "asdkjasdjk", got.UserText)
		assert.Equal(t, generalHelpText, got.Draft)
		require.Len(t, got.History, 2)
		assert.Equal(t, "hello", got.History[0].Content)

		last := svc.Store().GetHistory("s1", 1)
		assert.Equal(t, "Start with the tracer survey.", last[0].Content)
	})

	t.Run("prefix mode", func(t *testing.T) {
		enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
			return &ai.Enhancement{Content: "Quick tip.", Mode: ai.ModePrefix}, nil
		})
		svc := newTestService(t, nil, WithEnhancer(enhancer))

		resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")
		assert.Equal(t, "Quick tip.\n\n"+generalHelpText, resp.Content)
	})

	t.Run("not called for confident answers", func(t *testing.T) {
		var calls atomic.Int32
		enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
			calls.Add(1)
			return &ai.Enhancement{Content: "x"}, nil
		})
		svc := newTestService(t, nil, WithEnhancer(enhancer))

		resp := svc.ProcessMessage(context.Background(), "Thank you", "s1", "")
		assert.False(t, resp.Enhanced)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("failure keeps rule response", func(t *testing.T) {
		enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
			return nil, aierrors.EnhancerUnavailable("down", errors.New("connection refused"))
		})
		svc := newTestService(t, nil, WithEnhancer(enhancer))

		resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")
		assert.False(t, resp.Enhanced)
		assert.Equal(t, generalHelpText, resp.Content)
		assert.Equal(t, BranchGeneralHelp, resp.Branch())
	})

	t.Run("timeout keeps rule response", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
			<-release // ignores ctx on purpose
			return &ai.Enhancement{Content: "late"}, nil
		})
		svc := newTestService(t, func(c *Config) { c.EnhancerTimeout = 20 * time.Millisecond }, WithEnhancer(enhancer))

		start := time.Now()
		resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.False(t, resp.Enhanced)
		assert.Equal(t, generalHelpText, resp.Content)

		stats := svc.Stats().Metrics
		assert.Equal(t, int64(1), stats.Enhancer.Calls)
		assert.Equal(t, int64(0), stats.Enhancer.SuccessCount)
	})

	t.Run("panic keeps rule response", func(t *testing.T) {
		enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
			panic("boom")
		})
		svc := newTestService(t, nil, WithEnhancer(enhancer))

		resp := svc.ProcessMessage(context.Background(), "asdkjasdjk", "s1", "")
		assert.Equal(t, BranchGeneralHelp, resp.Branch())
		assert.Equal(t, generalHelpText, resp.Content)
	})
}

func TestProcessMessage_DebugMode(t *testing.T) {
	svc := newTestService(t, nil)
	svc.SetDebugMode(true)

	resp := svc.ProcessMessage(context.Background(), "Show me job openings in Manila", "s1", "")

	require.NotNil(t, resp.Debug)
	assert.Equal(t, BranchIntent, resp.Debug.Branch)
	assert.Equal(t, "job_search", resp.Debug.MatchedIntent)
	assert.Contains(t, resp.Debug.MatchedKeywords, "job")
	assert.Equal(t, "manila", resp.Debug.Entities.Location)
	assert.InDelta(t, resp.Confidence, resp.Debug.RawConfidence, 1e-9)
}

func TestAnalytics_RepeatQuestion(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.ProcessMessage(ctx, "I need a job", "s1", "")
	svc.ProcessMessage(ctx, "I need a job please", "s1", "")

	analytics := svc.GetAnalytics("s1")
	assert.Equal(t, 1, analytics.RepeatQuestions)
}

func TestExportConversation(t *testing.T) {
	tests := []struct {
		exchanges int
		want      int
	}{
		{exchanges: 3, want: 6},
		{exchanges: 15, want: 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d exchanges", tt.exchanges), func(t *testing.T) {
			svc := newTestService(t, nil)
			for i := 0; i < tt.exchanges; i++ {
				svc.ProcessMessage(context.Background(), "Thank you", "s1", "")
			}

			export := svc.ExportConversation("s1")
			assert.Equal(t, "s1", export.SessionID)
			assert.Len(t, export.Messages, tt.want)
			assert.Equal(t, tt.want, export.Summary.MessageCount)
			assert.Equal(t, tt.want/2, export.Summary.UserMessages)
			assert.Equal(t, tt.want/2, export.Summary.AssistantMessages)
			assert.Equal(t, svc.GetSummary("s1").MessageCount, tt.want)
		})
	}
}

func TestResetSession(t *testing.T) {
	svc := newTestService(t, nil)

	svc.ProcessMessage(context.Background(), "Thank you", "s1", "")
	svc.ResetSession("s1")

	assert.Empty(t, svc.Store().GetHistory("s1", 0))
	assert.Empty(t, svc.Store().GetContext("s1", "").PreviousIntent)
}

func TestTestIntent(t *testing.T) {
	svc := newTestService(t, nil)

	d := svc.TestIntent("  Show me job openings in MANILA ", "")
	require.NotNil(t, d.Match)
	assert.Equal(t, "job_search", d.Match.Intent.Name)
	assert.Equal(t, "show me job openings in manila", d.Normalized)
	assert.Equal(t, "manila", d.Entities.Location)
	assert.Len(t, d.Candidates, svc.registry.Len())
	assert.True(t, d.Answerable)

	d = svc.TestIntent("where can i see my notifications", "")
	require.NotNil(t, d.Match)
	assert.False(t, d.Answerable)

	d = svc.TestIntent("Tell me more about it", "employment_survey_submit")
	assert.Nil(t, d.Match)
	assert.True(t, d.FollowUp)

	assert.Equal(t, 0, svc.Store().SessionCount())
}

func TestConfigAccessors(t *testing.T) {
	svc := newTestService(t, nil)

	assert.InDelta(t, 0.4, svc.MinConfidence(), 1e-9)
	assert.Equal(t, 3, svc.MaxSuggestions())
	assert.True(t, svc.FuzzyMatching())
	assert.True(t, svc.ContextAwareness())
	assert.False(t, svc.DebugMode())

	svc.SetFuzzyMatching(false)
	assert.False(t, svc.FuzzyMatching())
	assert.False(t, svc.matcher.FuzzyMatching())

	svc.SetContextAwareness(false)
	assert.False(t, svc.ContextAwareness())

	err := svc.SetMinConfidence(1.5)
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))
	assert.InDelta(t, 0.4, svc.MinConfidence(), 1e-9)

	assert.Error(t, svc.SetMaxSuggestions(-1))
	assert.Error(t, svc.UpdateConfig(func(c *Config) { c.EnhancerTimeout = 0 }))
}

func TestNewService_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = -0.1

	_, err := NewService(cfg)
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))
}

func TestService_CleanupJobLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	svc, err := NewService(cfg)
	require.NoError(t, err)

	assert.True(t, svc.cleanup.IsRunning())
	svc.Close()
	assert.False(t, svc.cleanup.IsRunning())
	svc.Close()
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.ProcessMessage(ctx, "Thank you", "s1", "")
	svc.ProcessMessage(ctx, "asdkjasdjk", "s2", "")
	svc.ProcessMessage(ctx, "hello", "", "")

	stats := svc.Stats()
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, int64(3), stats.Metrics.RequestCount)
	assert.Equal(t, int64(2), stats.Metrics.SuccessCount)
	require.Contains(t, stats.Metrics.Branches, string(BranchError))
	assert.Equal(t, int64(1), stats.Metrics.Branches[string(BranchError)].Count)
}

func TestProcessMessage_ConcurrentSessions(t *testing.T) {
	svc := newTestService(t, nil)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		sessionID := fmt.Sprintf("s%d", i)
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				resp := svc.ProcessMessage(context.Background(), "Thank you", sessionID, "")
				if resp.Intent != "thanks" {
					return fmt.Errorf("session %s: got intent %q", sessionID, resp.Intent)
				}
			}
			return nil
		})
	}
	// Writers on a shared session interleave without losing the bound.
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				svc.ProcessMessage(context.Background(), "hello", "shared", "")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 9, svc.Store().SessionCount())
	assert.Equal(t, 20, svc.GetSummary("s0").MessageCount)

	// Each request records its user and assistant turn back to back.
	shared := svc.Store().GetHistory("shared", 0)
	require.Len(t, shared, 20)
	for i, msg := range shared {
		want := session.RoleUser
		if i%2 == 1 {
			want = session.RoleAssistant
		}
		assert.Equal(t, want, msg.Role, "message %d", i)
	}
	assert.Zero(t, svc.sessions.len())
}

func TestProcessMessage_SerializesSession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	enhancer := ai.EnhancerFunc(func(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return &ai.Enhancement{Content: "enhanced", Mode: ai.ModeReplace}, nil
	})
	svc := newTestService(t, nil, WithEnhancer(enhancer))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.ProcessMessage(ctx, "I need a job", "s1", "")
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		defer close(second)
		svc.ProcessMessage(ctx, "Thank you", "s1", "")
	}()

	// Another session is not held up.
	svc.ProcessMessage(ctx, "Thank you", "s2", "")
	select {
	case <-second:
		t.Fatal("second message on s1 ran while the first was in flight")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Len(t, svc.Store().GetHistory("s1", 0), 1)

	close(release)
	<-done
	<-second

	history := svc.Store().GetHistory("s1", 0)
	require.Len(t, history, 4)
	assert.Equal(t, "I need a job", history[0].Content)
	assert.Equal(t, "enhanced", history[1].Content)
	assert.Equal(t, "Thank you", history[2].Content)
	assert.Zero(t, svc.sessions.len())
}

func TestProcessMessage_LogsIntentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := newTestService(t, nil, WithLogger(logger))

	svc.ProcessMessage(context.Background(), "Thank you", "s1", "")

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, `msg="message processed"`) {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Equal(t, 1, strings.Count(line, " intent="), line)
	assert.Contains(t, line, "intent=thanks")
	assert.Contains(t, line, "branch=intent")
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type forgettingEnhancer struct {
	mu        sync.Mutex
	forgotten []string
}

func (f *forgettingEnhancer) Enhance(context.Context, ai.EnhanceRequest) (*ai.Enhancement, error) {
	return nil, errors.New("not used")
}

func (f *forgettingEnhancer) ForgetSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, sessionID)
}

func (f *forgettingEnhancer) Forgotten() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.forgotten...)
}

func TestService_ForgetsEvictedSessions(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := session.NewStore(session.DefaultConfig(), session.WithClock(clock.Now))
	enhancer := &forgettingEnhancer{}
	svc := newTestService(t, nil, WithStore(store), WithEnhancer(enhancer))
	ctx := context.Background()

	svc.ProcessMessage(ctx, "Thank you", "a", "")
	svc.ProcessMessage(ctx, "Thank you", "b", "")
	svc.ProcessMessage(ctx, "Thank you", "c", "")

	svc.ResetSession("a")
	assert.Equal(t, []string{"a"}, enhancer.Forgotten())

	clock.Advance(session.DefaultContextTTL + time.Second)
	require.Equal(t, 2, svc.cleanup.RunOnce())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, enhancer.Forgotten())
	assert.Equal(t, 0, svc.Store().SessionCount())
}
