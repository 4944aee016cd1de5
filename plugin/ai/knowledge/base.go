// Package knowledge holds the curated answers of the support assistant and the
// lookups the orchestrator needs on top of them.
package knowledge

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hans919/gts-assistant/plugin/ai/router"
)

//go:embed knowledge.yaml
var defaultCatalog []byte

const (
	// MaxSearchResults caps Search output.
	MaxSearchResults = 5
	// MaxRelatedTopics caps RelatedTopics output.
	MaxRelatedTopics = 3
)

// Search score weights per matched field.
const (
	scoreQuestion = 3
	scoreAnswer   = 2
	scoreTag      = 2
	scoreRelated  = 1
)

// Entry is a canonical answer keyed by intent name.
type Entry struct {
	ID       string          `yaml:"id" json:"id"`
	Category router.Category `yaml:"category" json:"category"`
	Question string          `yaml:"question" json:"question"`
	Answer   string          `yaml:"answer" json:"answer"`
	Related  []string        `yaml:"related,omitempty" json:"related_questions,omitempty"`
	Tags     []string        `yaml:"tags,omitempty" json:"tags,omitempty"`
	Priority int             `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// QuickAction is a navigation shortcut attached to an answer.
type QuickAction struct {
	Label  string `yaml:"label" json:"label"`
	Action string `yaml:"action" json:"action"`
	Icon   string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// SearchResult is an entry with its accumulated search score.
type SearchResult struct {
	Entry *Entry `json:"entry"`
	Score int    `json:"score"`
}

type catalogFile struct {
	Entries      []*Entry                 `yaml:"entries"`
	QuickActions map[string][]QuickAction `yaml:"quick_actions"`
}

// Base is a read-only knowledge catalog. Safe for concurrent use.
type Base struct {
	entries      []*Entry
	byID         map[string]*Entry
	quickActions map[string][]QuickAction
}

// DefaultBase loads the embedded knowledge catalog.
func DefaultBase() (*Base, error) {
	return LoadBase(defaultCatalog)
}

// LoadBase parses and validates a YAML knowledge catalog.
func LoadBase(data []byte) (*Base, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse knowledge catalog")
	}
	return NewBase(file.Entries, file.QuickActions)
}

// NewBase validates entries and builds a catalog preserving their order.
func NewBase(entries []*Entry, quickActions map[string][]QuickAction) (*Base, error) {
	if len(entries) == 0 {
		return nil, errors.New("knowledge catalog is empty")
	}

	b := &Base{
		entries:      make([]*Entry, 0, len(entries)),
		byID:         make(map[string]*Entry, len(entries)),
		quickActions: make(map[string][]QuickAction, len(quickActions)),
	}
	for i, e := range entries {
		if e == nil || strings.TrimSpace(e.ID) == "" {
			return nil, errors.Errorf("entry #%d has no id", i)
		}
		if _, dup := b.byID[e.ID]; dup {
			return nil, errors.Errorf("duplicate entry %q", e.ID)
		}
		if !e.Category.Valid() {
			return nil, errors.Errorf("entry %q has unknown category %q", e.ID, e.Category)
		}
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, errors.Errorf("entry %q needs a question and an answer", e.ID)
		}
		b.entries = append(b.entries, e)
		b.byID[e.ID] = e
	}
	for id, actions := range quickActions {
		if _, ok := b.byID[id]; !ok {
			return nil, errors.Errorf("quick actions reference unknown entry %q", id)
		}
		b.quickActions[id] = actions
	}
	return b, nil
}

// Len returns the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// Entries returns all entries in catalog order.
func (b *Base) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// GetByIntent returns the entry answering the given intent.
func (b *Base) GetByIntent(name string) (*Entry, bool) {
	e, ok := b.byID[name]
	return e, ok
}

// GetByCategory returns the entries of a category, highest priority first.
func (b *Base) GetByCategory(category router.Category) []*Entry {
	var out []*Entry
	for _, e := range b.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Search scores every entry by where the lowercased query occurs and returns
// at most MaxSearchResults hits, best first. Equal scores keep catalog order.
func (b *Base) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, e := range b.entries {
		score := 0
		if strings.Contains(strings.ToLower(e.Question), q) {
			score += scoreQuestion
		}
		if strings.Contains(strings.ToLower(e.Answer), q) {
			score += scoreAnswer
		}
		if anyContains(e.Tags, q) {
			score += scoreTag
		}
		if anyContains(e.Related, q) {
			score += scoreRelated
		}
		if score > 0 {
			results = append(results, SearchResult{Entry: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > MaxSearchResults {
		results = results[:MaxSearchResults]
	}
	return results
}

// GetQuickActions returns the shortcuts mapped to an intent, or nil.
func (b *Base) GetQuickActions(name string) []QuickAction {
	actions := b.quickActions[name]
	if len(actions) == 0 {
		return nil
	}
	out := make([]QuickAction, len(actions))
	copy(out, actions)
	return out
}

// GetRelatedTopics returns the questions of other entries in the same
// category, highest priority first, at most MaxRelatedTopics.
func (b *Base) GetRelatedTopics(name string) []string {
	e, ok := b.byID[name]
	if !ok {
		return nil
	}
	var topics []string
	for _, other := range b.GetByCategory(e.Category) {
		if other.ID == e.ID {
			continue
		}
		topics = append(topics, other.Question)
		if len(topics) == MaxRelatedTopics {
			break
		}
	}
	return topics
}

func anyContains(list []string, q string) bool {
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
