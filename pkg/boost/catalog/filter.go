package catalog

import (
	"github.com/gobwas/glob"
)

// Filter selects tweaks by id, glob pattern, category, applied state,
// and capability requirements. The zero filter matches everything.
type Filter struct {
	ids            map[string]struct{}
	patterns       []string
	categories     map[Category]struct{}
	applied        *bool
	reversibleOnly bool
	unelevatedOnly bool
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// NewFilter creates a filter with the given options.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		ids:        make(map[string]struct{}),
		categories: make(map[Category]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithIDs restricts matches to the given ids.
func WithIDs(ids ...string) Option {
	return func(f *Filter) {
		for _, id := range ids {
			f.ids[id] = struct{}{}
		}
	}
}

// WithPatterns restricts matches to ids matching any of the glob
// patterns, e.g. "disable_*" or "*nagle*".
func WithPatterns(patterns ...string) Option {
	return func(f *Filter) {
		f.patterns = append(f.patterns, patterns...)
	}
}

// WithCategories restricts matches to the given categories.
func WithCategories(cats ...Category) Option {
	return func(f *Filter) {
		for _, cat := range cats {
			f.categories[cat] = struct{}{}
		}
	}
}

// WithApplied restricts matches by applied state: true keeps only
// tweaks already applied, false keeps only those that are not.
func WithApplied(applied bool) Option {
	return func(f *Filter) {
		f.applied = &applied
	}
}

// WithReversibleOnly drops one-way tweaks.
func WithReversibleOnly() Option {
	return func(f *Filter) {
		f.reversibleOnly = true
	}
}

// WithUnelevatedOnly drops tweaks that need an elevated process.
func WithUnelevatedOnly() Option {
	return func(f *Filter) {
		f.unelevatedOnly = true
	}
}

// Match reports whether a tweak passes the filter. The caller supplies
// the tweak's applied state, since the catalog does not track it.
func (f *Filter) Match(tw Tweak, applied bool) bool {
	if len(f.ids) > 0 {
		if _, ok := f.ids[tw.ID]; !ok {
			return false
		}
	}

	if len(f.patterns) > 0 && !f.matchPatterns(tw.ID) {
		return false
	}

	if len(f.categories) > 0 {
		if _, ok := f.categories[tw.Category]; !ok {
			return false
		}
	}

	if f.applied != nil && *f.applied != applied {
		return false
	}

	if f.reversibleOnly && !tw.Reversible {
		return false
	}

	if f.unelevatedOnly && tw.RequiresElevation {
		return false
	}

	return true
}

// matchPatterns checks the id against all glob patterns. Invalid
// patterns are skipped.
func (f *Filter) matchPatterns(id string) bool {
	for _, pattern := range f.patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(id) {
			return true
		}
	}
	return false
}

// Apply runs the filter over tweaks in order. isApplied looks up each
// tweak's applied state; nil treats every tweak as not applied.
func (f *Filter) Apply(tweaks []Tweak, isApplied func(id string) bool) []Tweak {
	result := make([]Tweak, 0, len(tweaks))
	for _, tw := range tweaks {
		applied := false
		if isApplied != nil {
			applied = isApplied(tw.ID)
		}
		if f.Match(tw, applied) {
			result = append(result, tw)
		}
	}
	return result
}
