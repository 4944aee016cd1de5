package session

import (
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxHistory is the sliding window size of a session history.
	DefaultMaxHistory = 20
	// DefaultContextTTL is the idle time after which a context is discarded.
	DefaultContextTTL = 30 * time.Minute
	// DefaultCleanupInterval is the default interval between expiry sweeps.
	DefaultCleanupInterval = 5 * time.Minute
)

// Config holds the store limits.
type Config struct {
	MaxHistory      int           // messages kept per session (default: 20)
	ContextTTL      time.Duration // idle expiry (default: 30m)
	CleanupInterval time.Duration // sweep interval of the cleanup job (default: 5m)
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistory:      DefaultMaxHistory,
		ContextTTL:      DefaultContextTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// entry guards one session. removed is set under mu when the entry leaves the
// map, so a caller that fetched it before deletion retries with a fresh one.
type entry struct {
	mu      sync.Mutex
	ctx     *ConversationContext
	removed bool
}

// Store is the in-memory ContextStore.
// Writes to one session are serialized by its entry lock; sessions are independent.
// Lock order is always store then entry.
type Store struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	onEvict []func(sessionID string)
}

var _ ContextStore = (*Store)(nil)

// NewStore creates an empty store. Zero config values fall back to the defaults.
func NewStore(cfg Config, opts ...Option) *Store {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.ContextTTL <= 0 {
		cfg.ContextTTL = DefaultContextTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	s := &Store{
		config:  cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the store configuration.
func (s *Store) Config() Config {
	return s.config
}

func (s *Store) newContext(sessionID, userID string) *ConversationContext {
	now := s.now()
	return &ConversationContext{
		SessionID:    sessionID,
		UserID:       userID,
		History:      make([]Message, 0, s.config.MaxHistory),
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (s *Store) expired(c *ConversationContext) bool {
	return s.now().Sub(c.LastActivity) > s.config.ContextTTL
}

// acquire returns the locked entry of a session, creating it when missing and
// replacing its context when expired. The caller must unlock e.mu.
func (s *Store) acquire(sessionID, userID string) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[sessionID]
		if !ok {
			e = &entry{ctx: s.newContext(sessionID, userID)}
			s.entries[sessionID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			// Lost a race with a sweep or reset.
			e.mu.Unlock()
			continue
		}
		if s.expired(e.ctx) {
			slog.Debug("session context expired, starting fresh",
				"session_id", sessionID,
				"idle", s.now().Sub(e.ctx.LastActivity).String())
			if userID == "" {
				userID = e.ctx.UserID
			}
			e.ctx = s.newContext(sessionID, userID)
		}
		if userID != "" && e.ctx.UserID == "" {
			e.ctx.UserID = userID
		}
		return e
	}
}

// with runs fn on the session context under its entry lock.
func (s *Store) with(sessionID, userID string, fn func(c *ConversationContext)) {
	e := s.acquire(sessionID, userID)
	defer e.mu.Unlock()
	fn(e.ctx)
}

// GetContext returns a snapshot of the session context.
func (s *Store) GetContext(sessionID, userID string) *ConversationContext {
	var out *ConversationContext
	s.with(sessionID, userID, func(c *ConversationContext) {
		out = c.clone()
	})
	return out
}

// UpdateContext applies a partial update.
func (s *Store) UpdateContext(sessionID string, update ContextUpdate) *ConversationContext {
	var out *ConversationContext
	s.with(sessionID, "", func(c *ConversationContext) {
		if update.UserID != nil {
			c.UserID = *update.UserID
		}
		if update.PreviousIntent != nil {
			c.PreviousIntent = *update.PreviousIntent
		}
		if update.CurrentTopic != nil {
			c.CurrentTopic = *update.CurrentTopic
		}
		if update.Entities != nil {
			c.Entities = c.Entities.Merge(*update.Entities)
		}
		if len(update.Preferences) > 0 {
			if c.Preferences == nil {
				c.Preferences = make(map[string]string, len(update.Preferences))
			}
			maps.Copy(c.Preferences, update.Preferences)
		}
		c.LastActivity = s.now()
		out = c.clone()
	})
	return out
}

// AddMessage appends msg, filling its id and timestamp when unset, and trims
// the history to the window from the front. A message tagged with an intent
// also moves the previous intent, the topic and the entities forward.
func (s *Store) AddMessage(sessionID string, msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if msg.Metadata != nil {
		md := *msg.Metadata
		msg.Metadata = &md
	}

	s.with(sessionID, "", func(c *ConversationContext) {
		c.History = append(c.History, msg)
		if over := len(c.History) - s.config.MaxHistory; over > 0 {
			c.History = append(c.History[:0], c.History[over:]...)
		}
		if msg.HasIntent() {
			c.PreviousIntent = msg.Metadata.Intent
			c.CurrentTopic = TopicOf(msg.Metadata.Intent)
			c.Entities = c.Entities.Merge(msg.Metadata.Entities)
		}
		c.LastActivity = s.now()
	})
	return msg
}

// GetHistory returns the last limit messages, oldest first.
func (s *Store) GetHistory(sessionID string, limit int) []Message {
	var out []Message
	s.with(sessionID, "", func(c *ConversationContext) {
		start := 0
		if limit > 0 && len(c.History) > limit {
			start = len(c.History) - limit
		}
		out = c.clone().History[start:]
	})
	return out
}

// ClearHistory drops the messages of a session.
func (s *Store) ClearHistory(sessionID string) {
	s.with(sessionID, "", func(c *ConversationContext) {
		c.History = make([]Message, 0, s.config.MaxHistory)
		c.LastActivity = s.now()
	})
}

// OnEvict registers fn to run after a session leaves the store through
// ResetContext or CleanupExpired. Hooks run without store locks held.
func (s *Store) OnEvict(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

func (s *Store) evicted(hooks []func(string), ids ...string) {
	for _, id := range ids {
		for _, fn := range hooks {
			fn(id)
		}
	}
}

// ResetContext removes a session. The next access starts a fresh context.
func (s *Store) ResetContext(sessionID string) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	delete(s.entries, sessionID)
	hooks := s.onEvict
	s.mu.Unlock()

	if !ok {
		return
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	s.evicted(hooks, sessionID)
}

// CleanupExpired removes every context idle past the TTL.
// Entries busy with a request are skipped; they are not idle.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	var removed []string
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if s.expired(e.ctx) {
			e.removed = true
			delete(s.entries, id)
			removed = append(removed, id)
		}
		e.mu.Unlock()
	}
	hooks := s.onEvict
	s.mu.Unlock()

	s.evicted(hooks, removed...)
	return len(removed)
}

// SessionCount returns the number of live sessions, expired ones included
// until the next sweep.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SessionInfo is a listing row of a live session.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
}

// ListSessions lists live sessions, most recently active first.
func (s *Store) ListSessions() []SessionInfo {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed && !s.expired(e.ctx) {
			out = append(out, SessionInfo{
				SessionID:    e.ctx.SessionID,
				UserID:       e.ctx.UserID,
				MessageCount: len(e.ctx.History),
				LastActivity: e.ctx.LastActivity,
			})
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}
