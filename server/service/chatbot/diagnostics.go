package chatbot

import (
	"github.com/hans919/gts-assistant/plugin/ai/metrics"
	"github.com/hans919/gts-assistant/plugin/ai/router"
	"github.com/hans919/gts-assistant/plugin/ai/session"
)

// Stats is the operational snapshot of the service.
type Stats struct {
	Metrics        *metrics.Stats `json:"metrics"`
	ActiveSessions int            `json:"active_sessions"`
}

// GetSummary returns the session summary.
func (s *Service) GetSummary(sessionID string) session.Summary {
	return s.store.GetSummary(sessionID)
}

// ExportConversation returns the audit snapshot of a session.
func (s *Service) ExportConversation(sessionID string) session.Export {
	return s.store.ExportConversation(sessionID)
}

// GetAnalytics returns the conversation quality signals of a session.
func (s *Service) GetAnalytics(sessionID string) session.Analytics {
	return s.store.AnalyzePatterns(sessionID)
}

// ResetSession forgets everything about a session.
func (s *Service) ResetSession(sessionID string) {
	s.store.ResetContext(sessionID)
}

// TestIntent reports how text would be classified with previousIntent as
// context. No session is read or written.
func (s *Service) TestIntent(text, previousIntent string) *Diagnosis {
	cfg := s.Config()
	if !cfg.EnableContextAwareness {
		previousIntent = ""
	}
	normalized := router.Normalize(text)

	d := &Diagnosis{
		Input:      text,
		Normalized: normalized,
		Match:      s.matcher.DetectIntent(text, previousIntent),
		Candidates: s.matcher.Score(text, previousIntent),
		Entities:   router.ExtractEntities(normalized),
		FollowUp:   session.LooksLikeFollowUp(text),
	}
	if d.Match != nil && d.Match.Confidence >= cfg.MinConfidence {
		_, d.Answerable = s.kb.GetByIntent(d.Match.Intent.Name)
	}
	return d
}

// Stats returns request metrics and the number of live sessions.
func (s *Service) Stats() *Stats {
	return &Stats{
		Metrics:        s.metrics.Stats(),
		ActiveSessions: s.store.SessionCount(),
	}
}
