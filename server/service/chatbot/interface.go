package chatbot

import (
	"context"

	"github.com/hans919/gts-assistant/plugin/ai/knowledge"
	"github.com/hans919/gts-assistant/plugin/ai/router"
	"github.com/hans919/gts-assistant/plugin/ai/session"
)

// Chatbot defines the support assistant surface used by hosting applications.
type Chatbot interface {
	// ProcessMessage answers one user message. It never fails: unexpected errors
	// become an apology response and the session stays usable.
	ProcessMessage(ctx context.Context, text, sessionID, userID string) *Response

	// GetSummary returns the session summary.
	GetSummary(sessionID string) session.Summary

	// ExportConversation returns an audit snapshot of the session.
	ExportConversation(sessionID string) session.Export

	// GetAnalytics returns conversation quality signals of the session.
	GetAnalytics(sessionID string) session.Analytics

	// TestIntent explains how text would be classified, without touching any session.
	TestIntent(text, previousIntent string) *Diagnosis
}

// Branch is the response path ProcessMessage took.
type Branch string

const (
	BranchIntent      Branch = "intent"
	BranchSearch      Branch = "search"
	BranchFollowUp    Branch = "follow_up"
	BranchGeneralHelp Branch = "general_help"
	BranchError       Branch = "error"
)

// Response is returned to callers for every processed message.
type Response struct {
	Content       string                  `json:"content"`
	Intent        string                  `json:"intent"`
	Confidence    float64                 `json:"confidence"`
	Suggestions   []string                `json:"suggestions,omitempty"`
	QuickActions  []knowledge.QuickAction `json:"quick_actions,omitempty"`
	RelatedTopics []string                `json:"related_topics,omitempty"`
	Enhanced      bool                    `json:"enhanced,omitempty"`
	Debug         *Debug                  `json:"debug,omitempty"`

	branch Branch
}

// Branch returns the response path that produced r.
func (r *Response) Branch() Branch {
	return r.branch
}

// Debug is attached to responses when debug mode is on.
type Debug struct {
	Branch          Branch          `json:"branch"`
	MatchedIntent   string          `json:"matched_intent,omitempty"`
	MatchedKeywords []string        `json:"matched_keywords,omitempty"`
	RawConfidence   float64         `json:"raw_confidence"`
	Entities        router.Entities `json:"entities"`
	PreviousIntent  string          `json:"previous_intent,omitempty"`
	LatencyMS       int64           `json:"latency_ms"`
}

// Diagnosis is the classification breakdown of one input.
type Diagnosis struct {
	Input      string              `json:"input"`
	Normalized string              `json:"normalized"`
	Match      *router.MatchResult `json:"match,omitempty"`
	Candidates []router.Candidate  `json:"candidates"`
	Entities   router.Entities     `json:"entities"`
	FollowUp   bool                `json:"looks_like_follow_up"`
	Answerable bool                `json:"answerable"`
}
