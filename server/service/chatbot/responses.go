package chatbot

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hans919/gts-assistant/plugin/ai/knowledge"
	"github.com/hans919/gts-assistant/plugin/ai/router"
)

// Fixed confidences of the fallback branches.
const (
	SearchConfidence      = 0.5
	FollowUpConfidence    = 0.6
	GeneralHelpConfidence = 0.3
	ErrorConfidence       = 0.0

	// GeneralHelpIntent names general-help responses.
	GeneralHelpIntent = "general_help"
	// ErrorIntent names apology responses.
	ErrorIntent = "error"

	maxSearchAlternatives = 3
)

const (
	searchIntro     = "Here's what I found that might help:"
	followUpIntro   = "Here are some related questions you might have:"
	followUpOutro   = "Just ask any of them, or tell me more about what you need."
	generalHelpText = "I'm not sure I understood that. I can help you with the employment survey, your profile and employment status, job openings, events, resumes and the alumni network. Try one of the questions below."
	apologyText     = "Sorry, something went wrong while handling your message. Please try again in a moment."
	jobTypeNoteFmt  = "Looking for %s positions? Use the job type filter on the Jobs page to see only those openings."
	locationNoteFmt = "For opportunities in %s, set the location filter on the Jobs page to narrow the results."
)

// StarterSuggestions are offered with the general-help menu.
var StarterSuggestions = []string{
	"How do I submit the employment survey?",
	"How do I update my profile?",
	"How do I find a job?",
	"What events are coming up?",
	"How do I create a resume?",
}

func (s *Service) intentResponse(cfg Config, entry *knowledge.Entry, match *router.MatchResult) *Response {
	var b strings.Builder
	b.WriteString(entry.Answer)
	for _, note := range entityNotes(match.Entities) {
		b.WriteString("\n\n")
		b.WriteString(note)
	}

	return &Response{
		Content:       b.String(),
		Intent:        match.Intent.Name,
		Confidence:    match.Confidence,
		Suggestions:   capList(entry.Related, cfg.MaxSuggestions),
		QuickActions:  s.kb.GetQuickActions(entry.ID),
		RelatedTopics: s.kb.GetRelatedTopics(entry.ID),
		branch:        BranchIntent,
	}
}

func (s *Service) searchResponse(results []knowledge.SearchResult) *Response {
	top := results[0].Entry

	var alternatives []string
	for _, r := range results[1:] {
		alternatives = append(alternatives, r.Entry.Question)
	}

	return &Response{
		Content:      fmt.Sprintf("%s\n\n%s\n%s", searchIntro, top.Question, top.Answer),
		Intent:       top.ID,
		Confidence:   SearchConfidence,
		Suggestions:  capList(alternatives, maxSearchAlternatives),
		QuickActions: s.kb.GetQuickActions(top.ID),
		branch:       BranchSearch,
	}
}

func (s *Service) followUpResponse(cfg Config, entry *knowledge.Entry) *Response {
	var b strings.Builder
	b.WriteString(followUpIntro)
	b.WriteString("\n")
	for i, q := range entry.Related {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}
	b.WriteString("\n\n")
	b.WriteString(followUpOutro)

	return &Response{
		Content:     b.String(),
		Intent:      entry.ID,
		Confidence:  FollowUpConfidence,
		Suggestions: capList(entry.Related, cfg.MaxSuggestions),
		branch:      BranchFollowUp,
	}
}

func generalHelpResponse() *Response {
	return &Response{
		Content:     generalHelpText,
		Intent:      GeneralHelpIntent,
		Confidence:  GeneralHelpConfidence,
		Suggestions: append([]string(nil), StarterSuggestions...),
		branch:      BranchGeneralHelp,
	}
}

func apologyResponse() *Response {
	return &Response{
		Content:    apologyText,
		Intent:     ErrorIntent,
		Confidence: ErrorConfidence,
		branch:     BranchError,
	}
}

// entityNotes returns the job-type and location hints, in that order.
func entityNotes(e router.Entities) []string {
	var notes []string
	if e.JobType != "" {
		notes = append(notes, fmt.Sprintf(jobTypeNoteFmt, e.JobType))
	}
	if e.Location != "" {
		notes = append(notes, fmt.Sprintf(locationNoteFmt, titleCase(e.Location)))
	}
	return notes
}

func capList(list []string, n int) []string {
	if n <= 0 || len(list) == 0 {
		return nil
	}
	if len(list) > n {
		list = list[:n]
	}
	return append([]string(nil), list...)
}

// titleCase upper-cases the first rune of every word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
