package voice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogVersion is the schema version this build understands.
const CatalogVersion = 1

// Registry is the immutable, queryable speaker catalog. Safe for concurrent
// reads from any number of sessions.
type Registry struct {
	version  int
	speakers []Speaker
	byID     map[string]*Speaker
	priority []PriorityTable
}

// catalogFile mirrors the on-disk YAML schema.
type catalogFile struct {
	Version  int             `yaml:"version"`
	Speakers []Speaker       `yaml:"speakers"`
	Priority []PriorityTable `yaml:"priority"`
}

// LoadRegistry reads and validates the catalog artifact at path.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice catalog: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a Registry from raw catalog YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse voice catalog: %w", err)
	}
	if cf.Version != CatalogVersion {
		return nil, fmt.Errorf("unsupported voice catalog version %d (want %d)", cf.Version, CatalogVersion)
	}
	if len(cf.Speakers) == 0 {
		return nil, fmt.Errorf("voice catalog declares no speakers")
	}

	r := &Registry{
		version:  cf.Version,
		speakers: cf.Speakers,
		byID:     make(map[string]*Speaker, len(cf.Speakers)),
		priority: cf.Priority,
	}

	for i := range r.speakers {
		s := &r.speakers[i]
		if err := validateSpeaker(s); err != nil {
			return nil, fmt.Errorf("speaker %q: %w", s.ID, err)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate speaker id %q", s.ID)
		}
		r.byID[s.ID] = s
	}

	seen := make(map[ProviderID]bool, len(r.priority))
	for _, t := range r.priority {
		if !isKnownProvider(t.Provider) {
			return nil, fmt.Errorf("priority table for unknown provider %q", t.Provider)
		}
		if seen[t.Provider] {
			return nil, fmt.Errorf("duplicate priority table for provider %q", t.Provider)
		}
		seen[t.Provider] = true
	}

	return r, nil
}

func validateSpeaker(s *Speaker) error {
	if s.ID == "" {
		return fmt.Errorf("missing id")
	}
	if len(s.Languages) == 0 {
		return fmt.Errorf("languages set is empty")
	}
	if !s.Supports(s.Primary) {
		return fmt.Errorf("primary_language %q not in languages", s.Primary)
	}
	if !isKnownProvider(s.Provider) {
		return fmt.Errorf("unknown provider %q", s.Provider)
	}
	if bad(s.Quality.Warmth) || bad(s.Quality.Clarity) {
		return fmt.Errorf("quality scores must be in [0,1]")
	}
	if s.Request.VoiceID == "" {
		return fmt.Errorf("request.voice is required")
	}
	return nil
}

func bad(v float64) bool { return v < 0 || v > 1 }

func isKnownProvider(p ProviderID) bool {
	for _, k := range KnownProviders {
		if k == p {
			return true
		}
	}
	return false
}

// Version returns the catalog schema version.
func (r *Registry) Version() int { return r.version }

// Speakers returns all speakers in declaration order.
func (r *Registry) Speakers() []Speaker { return r.speakers }

// Speaker looks up a speaker by id.
func (r *Registry) Speaker(id string) (*Speaker, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Default returns the registry-wide default speaker (first declared entry).
func (r *Registry) Default() *Speaker {
	return &r.speakers[0]
}

// SpeakersFor returns all speakers supporting lang, in declaration order.
// An unknown language yields an empty slice, not an error.
func (r *Registry) SpeakersFor(lang Language) []*Speaker {
	var out []*Speaker
	for i := range r.speakers {
		if r.speakers[i].Supports(lang) {
			out = append(out, &r.speakers[i])
		}
	}
	return out
}

// IsPriority reports whether lang is in the given provider's priority table.
func (r *Registry) IsPriority(provider ProviderID, lang Language) bool {
	for i := range r.priority {
		if r.priority[i].Provider == provider {
			return r.priority[i].contains(lang)
		}
	}
	return false
}
