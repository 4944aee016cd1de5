package router

import (
	"regexp"
	"strings"
)

// jobTypeKeywords is checked in order; the first one present wins.
var jobTypeKeywords = []string{
	"full-time",
	"part-time",
	"internship",
	"contract",
	"freelance",
	"remote",
	"ojt",
}

// employmentStatusKeywords is checked in order; specific forms precede "employed"
// because the check is a substring test.
var employmentStatusKeywords = []string{
	"unemployed",
	"self-employed",
	"employed",
	"freelancing",
	"studying",
	"job hunting",
}

// locationPattern captures the first word following "in", "at" or "near",
// skipping a leading article. locationTail picks up the words after it.
var (
	locationPattern = regexp.MustCompile(`\b(?:in|at|near)\s+(?:the\s+|a\s+|an\s+)?([a-z][a-z-]*)`)
	locationTail    = regexp.MustCompile(`^(?:\s+[a-z][a-z-]*)+`)
)

// maxLocationWords bounds a place name such as "san juan city".
const maxLocationWords = 3

// locationStopWords are words that commonly follow "in"/"at" without naming a place.
var locationStopWords = map[string]bool{
	"to": true, "my": true, "your": true, "our": true, "this": true, "that": true,
	"it": true, "all": true, "least": true, "once": true, "order": true, "case": true,
}

// locationBreakWords end a place name.
var locationBreakWords = map[string]bool{
	"for": true, "with": true, "and": true, "or": true, "as": true, "but": true,
	"to": true, "on": true, "from": true, "of": true, "that": true, "this": true,
	"which": true, "who": true, "where": true, "please": true, "i": true, "me": true,
	"my": true, "we": true, "you": true, "if": true, "so": true, "because": true,
	"in": true, "at": true, "near": true, "is": true, "are": true, "was": true,
	"do": true, "does": true, "can": true, "hiring": true, "now": true, "today": true,
	"only": true, "jobs": true, "job": true,
}

// ExtractEntities pulls job type, location and employment status out of normalized input.
// Extraction does not depend on which intent matched.
func ExtractEntities(normalized string) Entities {
	var e Entities

	for _, kw := range jobTypeKeywords {
		if strings.Contains(normalized, kw) {
			e.JobType = kw
			break
		}
	}

	for _, m := range locationPattern.FindAllStringSubmatchIndex(normalized, -1) {
		first := normalized[m[2]:m[3]]
		if locationStopWords[first] {
			continue
		}
		e.Location = locationRun(first, normalized[m[3]:])
		break
	}

	for _, kw := range employmentStatusKeywords {
		if strings.Contains(normalized, kw) {
			e.EmploymentStatus = kw
			break
		}
	}

	return e
}

// locationRun extends first with the following words until a break word,
// punctuation or maxLocationWords.
func locationRun(first, rest string) string {
	words := []string{first}
	for _, w := range strings.Fields(locationTail.FindString(rest)) {
		if len(words) == maxLocationWords || locationBreakWords[w] {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
