// Package session keeps per-session conversation state for the support assistant:
// a bounded message history, the last detected intent and topic, cumulative
// entities and an idle expiry. State is in memory only.
package session

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hans919/gts-assistant/plugin/ai/router"
)

// ContextStore defines the conversation context store interface.
// Consumers: chatbot orchestrator, CLI.
type ContextStore interface {
	// GetContext returns a snapshot of the session context, creating it when
	// missing and replacing it when expired.
	GetContext(sessionID, userID string) *ConversationContext

	// UpdateContext applies a partial update and refreshes the activity time.
	UpdateContext(sessionID string, update ContextUpdate) *ConversationContext

	// AddMessage appends a message to the sliding history window.
	AddMessage(sessionID string, msg Message) Message

	// GetHistory returns the last limit messages (all when limit <= 0).
	GetHistory(sessionID string, limit int) []Message

	// IsFollowUpQuestion reports whether text continues the previous intent.
	IsFollowUpQuestion(sessionID, text string) bool

	// ClearHistory drops the messages but keeps the rest of the context.
	ClearHistory(sessionID string)

	// ResetContext removes the session entirely.
	ResetContext(sessionID string)

	// CleanupExpired removes every context idle past the TTL and returns the count.
	CleanupExpired() int

	// GetSummary computes counts, topics and timing of the session.
	GetSummary(sessionID string) Summary

	// ExportConversation snapshots the session for audit or debugging.
	ExportConversation(sessionID string) Export

	// AnalyzePatterns computes topic frequency and conversation quality signals.
	AnalyzePatterns(sessionID string) Analytics
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of a session history.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries the classification attached to a message.
type MessageMetadata struct {
	Intent     string          `json:"intent,omitempty"`
	Confidence float64         `json:"confidence"`
	Entities   router.Entities `json:"entities"`
}

// HasIntent reports whether the message was tagged with an intent.
func (m Message) HasIntent() bool {
	return m.Metadata != nil && m.Metadata.Intent != ""
}

// ConversationContext is the state of one session.
type ConversationContext struct {
	SessionID      string            `json:"session_id"`
	UserID         string            `json:"user_id,omitempty"`
	History        []Message         `json:"history"`
	PreviousIntent string            `json:"previous_intent,omitempty"`
	CurrentTopic   string            `json:"current_topic,omitempty"`
	Entities       router.Entities   `json:"entities"`
	Preferences    map[string]string `json:"preferences,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
}

// clone returns a deep copy safe to hand out of the store.
func (c *ConversationContext) clone() *ConversationContext {
	out := *c
	out.History = slices.Clone(c.History)
	for i, msg := range out.History {
		if msg.Metadata != nil {
			md := *msg.Metadata
			out.History[i].Metadata = &md
		}
	}
	out.Preferences = maps.Clone(c.Preferences)
	return &out
}

// ContextUpdate is a partial update; nil fields are left unchanged.
type ContextUpdate struct {
	UserID         *string
	PreviousIntent *string
	CurrentTopic   *string
	// Entities are merged: non-empty fields overwrite.
	Entities *router.Entities
	// Preferences are merged key by key.
	Preferences map[string]string
}

// Summary is the aggregate view of a session.
type Summary struct {
	SessionID         string        `json:"session_id"`
	MessageCount      int           `json:"message_count"`
	UserMessages      int           `json:"user_messages"`
	AssistantMessages int           `json:"assistant_messages"`
	Topics            []string      `json:"topics"`
	Duration          time.Duration `json:"duration"`
	LastActivity      time.Time     `json:"last_activity"`
}

// Export is an audit snapshot of a session.
type Export struct {
	SessionID  string               `json:"session_id"`
	Messages   []Message            `json:"messages"`
	Summary    Summary              `json:"summary"`
	Context    *ConversationContext `json:"context"`
	ExportedAt time.Time            `json:"exported_at"`
}

// TopicCount is a topic and how many tagged messages mention it.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Analytics holds conversation quality signals of a session.
type Analytics struct {
	SessionID       string        `json:"session_id"`
	TopTopics       []TopicCount  `json:"top_topics"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ThanksCount     int           `json:"thanks_count"`
	RepeatQuestions int           `json:"repeat_questions"`
	EscalationCount int           `json:"escalation_count"`
}

// TopicOf derives a topic from an intent name: its first underscore-delimited segment.
func TopicOf(intent string) string {
	topic, _, _ := strings.Cut(intent, "_")
	return topic
}
