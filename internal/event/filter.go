package event

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter is one rule in the title-matching algebra. Exactly one rule field
// may be set; composite rules nest further filters. The zero value matches
// every entry, which lets a configuration track all sessions at a facility.
//
// In YAML a filter is written as a single-key mapping:
//
//	filter:
//	  all:
//	    - contains: "figure skating"
//	    - not:
//	        contains: "hold"
type Filter struct {
	// Contains matches when the entry title contains this substring,
	// case-insensitively.
	Contains string `yaml:"contains,omitempty" koanf:"contains" json:"contains,omitempty"`

	// Glob matches the lowercased entry title against a glob pattern
	// supporting `*`, `?`, and character classes.
	Glob string `yaml:"glob,omitempty" koanf:"glob" json:"glob,omitempty"`

	// Not inverts the nested filter.
	Not *Filter `yaml:"not,omitempty" koanf:"not" json:"not,omitempty"`

	// All matches when every nested filter matches.
	All []Filter `yaml:"all,omitempty" koanf:"all" json:"all,omitempty"`

	// Any matches when at least one nested filter matches.
	Any []Filter `yaml:"any,omitempty" koanf:"any" json:"any,omitempty"`
}

// Validate checks that at most one rule field is set, that glob patterns
// compile, and that nested filters are themselves valid. Configurations are
// validated once at load time so matching never fails mid-run.
func (f Filter) Validate() error {
	set := 0
	if f.Contains != "" {
		set++
	}
	if f.Glob != "" {
		set++
	}
	if f.Not != nil {
		set++
	}
	if len(f.All) > 0 {
		set++
	}
	if len(f.Any) > 0 {
		set++
	}
	if set > 1 {
		return fmt.Errorf("filter sets %d rules, want at most one", set)
	}
	if f.Glob != "" && !doublestar.ValidatePattern(f.Glob) {
		return fmt.Errorf("invalid glob pattern %q", f.Glob)
	}
	if f.Not != nil {
		if err := f.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}
	for i, sub := range f.All {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("all[%d]: %w", i, err)
		}
	}
	for i, sub := range f.Any {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("any[%d]: %w", i, err)
		}
	}
	return nil
}

// Match reports whether the entry's title satisfies this filter. Patterns
// are assumed valid; call Validate when loading configuration.
func (f Filter) Match(e CalendarEntry) bool {
	switch {
	case f.Contains != "":
		return strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Contains))
	case f.Glob != "":
		ok, err := doublestar.Match(strings.ToLower(f.Glob), strings.ToLower(e.Title))
		return err == nil && ok
	case f.Not != nil:
		return !f.Not.Match(e)
	case len(f.All) > 0:
		for _, sub := range f.All {
			if !sub.Match(e) {
				return false
			}
		}
		return true
	case len(f.Any) > 0:
		for _, sub := range f.Any {
			if sub.Match(e) {
				return true
			}
		}
		return false
	}
	return true
}
