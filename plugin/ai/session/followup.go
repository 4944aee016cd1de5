package session

import "regexp"

// followUpPatterns are heuristics on the raw message text. Any match is enough.
var followUpPatterns = []*regexp.Regexp{
	// references to what was just discussed
	regexp.MustCompile(`(?i)\b(it|that|this|those|these|they|them)\b`),
	regexp.MustCompile(`(?i)\b(more|elaborate|explain)\b`),
	regexp.MustCompile(`(?i)\b(what|how) about\b`),
	// additive connectives
	regexp.MustCompile(`(?i)^\s*(and|also|plus)\b|\b(additionally|furthermore|besides)\b`),
	regexp.MustCompile(`(?i)\b(can|could|would) you\b`),
}

// LooksLikeFollowUp applies the follow-up heuristics to text alone.
func LooksLikeFollowUp(text string) bool {
	for _, p := range followUpPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsFollowUpQuestion reports whether text reads as a continuation of the
// session's previous intent. Sessions without a previous intent never have one.
func (s *Store) IsFollowUpQuestion(sessionID, text string) bool {
	var previous string
	s.with(sessionID, "", func(c *ConversationContext) {
		previous = c.PreviousIntent
	})
	return previous != "" && LooksLikeFollowUp(text)
}
