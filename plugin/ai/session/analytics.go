package session

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hans919/gts-assistant/plugin/ai/router"
)

const (
	topTopicLimit   = 3
	repeatThreshold = 0.7
)

var (
	thanksPattern     = regexp.MustCompile(`(?i)\b(thank|thanks|thx|appreciate|grateful)`)
	escalationPattern = regexp.MustCompile(`(?i)\b(talk|speak) to (a |an )?(human|person|someone|agent|staff)\b|\breal person\b|\bnot helpful\b|\bunhelpful\b|\blive agent\b`)
)

// GetSummary computes counts, topics and timing of a session.
func (s *Store) GetSummary(sessionID string) Summary {
	var out Summary
	s.with(sessionID, "", func(c *ConversationContext) {
		out = summarize(c)
	})
	return out
}

// ExportConversation snapshots a session. Messages, summary and context come
// from the same instant.
func (s *Store) ExportConversation(sessionID string) Export {
	var out Export
	s.with(sessionID, "", func(c *ConversationContext) {
		snapshot := c.clone()
		out = Export{
			SessionID:  sessionID,
			Messages:   snapshot.History,
			Summary:    summarize(c),
			Context:    snapshot,
			ExportedAt: s.now(),
		}
	})
	return out
}

// AnalyzePatterns computes topic frequency and quality signals of a session.
func (s *Store) AnalyzePatterns(sessionID string) Analytics {
	var history []Message
	s.with(sessionID, "", func(c *ConversationContext) {
		history = c.clone().History
	})
	return analyze(sessionID, history)
}

func summarize(c *ConversationContext) Summary {
	sum := Summary{
		SessionID:    c.SessionID,
		MessageCount: len(c.History),
		Topics:       []string{},
		LastActivity: c.LastActivity,
	}
	seen := make(map[string]bool)
	for _, msg := range c.History {
		switch msg.Role {
		case RoleUser:
			sum.UserMessages++
		case RoleAssistant:
			sum.AssistantMessages++
		}
		if msg.HasIntent() {
			topic := TopicOf(msg.Metadata.Intent)
			if !seen[topic] {
				seen[topic] = true
				sum.Topics = append(sum.Topics, topic)
			}
		}
	}
	if n := len(c.History); n > 1 {
		sum.Duration = c.History[n-1].Timestamp.Sub(c.History[0].Timestamp)
	}
	return sum
}

func analyze(sessionID string, history []Message) Analytics {
	out := Analytics{
		SessionID: sessionID,
		TopTopics: topTopics(history),
	}

	var (
		latencyTotal time.Duration
		latencyCount int
		lastQuestion []string
		haveQuestion bool
	)
	for i, msg := range history {
		if msg.Role != RoleUser {
			continue
		}
		if i+1 < len(history) && history[i+1].Role == RoleAssistant {
			latencyTotal += history[i+1].Timestamp.Sub(msg.Timestamp)
			latencyCount++
		}
		if thanksPattern.MatchString(msg.Content) {
			out.ThanksCount++
		}
		if escalationPattern.MatchString(msg.Content) {
			out.EscalationCount++
		}

		words := strings.Fields(strings.ToLower(msg.Content))
		if haveQuestion && router.JaccardSimilarity(lastQuestion, words) > repeatThreshold {
			out.RepeatQuestions++
		}
		lastQuestion, haveQuestion = words, true
	}
	if latencyCount > 0 {
		out.AvgResponseTime = latencyTotal / time.Duration(latencyCount)
	}
	return out
}

// topTopics counts topics over tagged messages; ties keep first-seen order.
func topTopics(history []Message) []TopicCount {
	counts := []TopicCount{}
	index := make(map[string]int)
	for _, msg := range history {
		if !msg.HasIntent() {
			continue
		}
		topic := TopicOf(msg.Metadata.Intent)
		if i, ok := index[topic]; ok {
			counts[i].Count++
			continue
		}
		index[topic] = len(counts)
		counts = append(counts, TopicCount{Topic: topic, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > topTopicLimit {
		counts = counts[:topTopicLimit]
	}
	return counts
}
