// Package ai connects the assistant to an external language model that may
// rewrite or prefix low-confidence rule-based answers.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// Enhancer defines the enhancement collaborator interface.
// Consumers: chatbot orchestrator.
type Enhancer interface {
	// Enhance returns replacement or prefix text for a draft response.
	// Implementations must honour ctx cancellation.
	Enhance(ctx context.Context, req EnhanceRequest) (*Enhancement, error)
}

// SessionForgetter is implemented by enhancers that keep per-session state.
// The orchestrator calls ForgetSession when a session leaves the context store.
type SessionForgetter interface {
	ForgetSession(sessionID string)
}

// EnhancerFunc adapts a function to the Enhancer interface.
type EnhancerFunc func(ctx context.Context, req EnhanceRequest) (*Enhancement, error)

// Enhance calls f.
func (f EnhancerFunc) Enhance(ctx context.Context, req EnhanceRequest) (*Enhancement, error) {
	return f(ctx, req)
}

// Mode is how enhancement text combines with the rule-based response.
type Mode string

const (
	// ModeReplace substitutes the response content.
	ModeReplace Mode = "replace"
	// ModePrefix puts the enhancement before the response content.
	ModePrefix Mode = "prefix"
)

// ParseMode parses a mode name; empty means ModeReplace.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModePrefix:
		return ModePrefix, nil
	default:
		return "", fmt.Errorf("unknown enhancement mode %q", s)
	}
}

// Turn is one history message passed to the model.
type Turn struct {
	Role    string
	Content string
}

// EnhanceRequest is what the orchestrator knows when it asks for help.
type EnhanceRequest struct {
	SessionID  string
	UserText   string
	Draft      string // rule-based response content
	Intent     string
	Confidence float64
	History    []Turn // oldest first, current user text excluded
}

// Enhancement is the model output and how to apply it.
type Enhancement struct {
	Content string `json:"content"`
	Mode    Mode   `json:"mode"`
}

// Apply combines the enhancement with the draft content.
func (e *Enhancement) Apply(draft string) string {
	if e == nil || strings.TrimSpace(e.Content) == "" {
		return draft
	}
	if e.Mode == ModePrefix {
		return strings.TrimSpace(e.Content) + "\n\n" + draft
	}
	return strings.TrimSpace(e.Content)
}
