package router

import (
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var defaultCatalog []byte

// Registry is an ordered, validated, read-only set of intents.
type Registry struct {
	intents []*Intent
	byName  map[string]*Intent
}

type catalogFile struct {
	Intents []*Intent `yaml:"intents"`
}

// DefaultRegistry loads the embedded intent catalog.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(defaultCatalog)
}

// MustDefaultRegistry is DefaultRegistry for callers that treat a broken
// embedded catalog as a programming error.
func MustDefaultRegistry() *Registry {
	r, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRegistry parses and validates a YAML intent catalog.
func LoadRegistry(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse intent catalog")
	}
	return NewRegistry(file.Intents)
}

// NewRegistry validates intents and builds a registry preserving their order.
func NewRegistry(intents []*Intent) (*Registry, error) {
	if len(intents) == 0 {
		return nil, errors.New("intent catalog is empty")
	}

	r := &Registry{
		intents: make([]*Intent, 0, len(intents)),
		byName:  make(map[string]*Intent, len(intents)),
	}

	for i, intent := range intents {
		if intent == nil {
			return nil, errors.Errorf("intent #%d is empty", i)
		}
		normalizeIntent(intent)
		if intent.Name == "" {
			return nil, errors.Errorf("intent #%d has no name", i)
		}
		if _, dup := r.byName[intent.Name]; dup {
			return nil, errors.Errorf("duplicate intent %q", intent.Name)
		}
		if !intent.Category.Valid() {
			return nil, errors.Errorf("intent %q has unknown category %q", intent.Name, intent.Category)
		}
		if len(intent.Keywords) == 0 {
			return nil, errors.Errorf("intent %q has no keywords", intent.Name)
		}
		for _, req := range intent.RequiredKeywords {
			if !containsString(intent.Keywords, req) {
				return nil, errors.Errorf("intent %q requires %q which is not one of its keywords", intent.Name, req)
			}
		}
		r.intents = append(r.intents, intent)
		r.byName[intent.Name] = intent
	}

	// Follow-up sources may be declared after the intent that references them.
	for _, intent := range r.intents {
		for _, src := range intent.FollowUpOf {
			if _, ok := r.byName[src]; !ok {
				return nil, errors.Errorf("intent %q follows unknown intent %q", intent.Name, src)
			}
		}
	}

	return r, nil
}

// Intents returns the intents in declaration order.
func (r *Registry) Intents() []*Intent {
	out := make([]*Intent, len(r.intents))
	copy(out, r.intents)
	return out
}

// Get returns the intent with the given name.
func (r *Registry) Get(name string) (*Intent, bool) {
	intent, ok := r.byName[name]
	return intent, ok
}

// Len returns the number of registered intents.
func (r *Registry) Len() int {
	return len(r.intents)
}

// normalizeIntent lowercases keyword and pattern text so matching can run on normalized input.
func normalizeIntent(intent *Intent) {
	intent.Name = strings.TrimSpace(intent.Name)
	for i, kw := range intent.Keywords {
		intent.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	for i, kw := range intent.RequiredKeywords {
		intent.RequiredKeywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	for i, p := range intent.Patterns {
		intent.Patterns[i] = Normalize(p)
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
