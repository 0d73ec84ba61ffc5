// Package output provides formatters for displaying tweak listings and
// batch reports in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, doc); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/arcboost/pkg/boost/logging"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// TweakInfo contains detailed information about a tweak for output formatting.
// It combines the catalog definition with the recorded applied state.
type TweakInfo struct {
	// ID is the stable tweak identifier (e.g., "game_mode_enable").
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable tweak name.
	Name string `json:"name" yaml:"name"`

	// Summary is a one-line description of what the tweak changes.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Category is the tweak category (System, Network, Graphics).
	Category string `json:"category" yaml:"category"`

	// NeedsAdmin indicates the tweak requires an elevated process.
	NeedsAdmin bool `json:"needs_admin" yaml:"needs_admin"`

	// OneWay indicates the tweak cannot be restored once applied.
	OneWay bool `json:"one_way" yaml:"one_way"`

	// Applied indicates a prior state is recorded for this tweak.
	Applied bool `json:"applied" yaml:"applied"`

	// AppliedAt is when the tweak was applied. Zero when not applied.
	AppliedAt time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

// BatchResult is the outcome of a single tweak within a batch.
type BatchResult struct {
	// ID is the tweak identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable tweak name. Empty for unknown ids.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Outcome is one of applied, restored, skipped, failed, not-found.
	Outcome string `json:"outcome" yaml:"outcome"`

	// Failure classifies a failed outcome (execution, persistence, ...).
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`

	// Reason is the human-readable detail for skipped or failed outcomes.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BatchInfo describes a completed apply or restore batch.
type BatchInfo struct {
	// Op is "apply" or "restore".
	Op string `json:"op" yaml:"op"`

	// Summary is the one-line human summary of the batch.
	Summary string `json:"summary" yaml:"summary"`

	// Duration is the total time taken by the batch.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Results contains the per-tweak outcomes in execution order.
	Results []BatchResult `json:"results" yaml:"results"`
}

// Document contains the complete output data for formatting.
// A status listing carries Tweaks only; after an apply or restore the
// Batch section carries the per-tweak outcomes as well.
type Document struct {
	// Tweaks contains the tweaks being listed, in catalog order.
	Tweaks []TweakInfo `json:"tweaks" yaml:"tweaks"`

	// Batch contains the outcomes of a just-completed batch, if any.
	Batch *BatchInfo `json:"batch,omitempty" yaml:"batch,omitempty"`

	// StatePath is the path of the applied-state record file.
	StatePath string `json:"state_path" yaml:"state_path"`

	// Elevated indicates the process holds administrative privileges.
	Elevated bool `json:"elevated" yaml:"elevated"`

	// Unknown lists record entries whose ids are not in the catalog.
	// They are preserved on disk and surfaced here.
	Unknown []string `json:"unknown_entries,omitempty" yaml:"unknown_entries,omitempty"`

	// Warnings contains any warning messages to display.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AppliedCount returns the number of tweaks with a recorded prior state.
func (d *Document) AppliedCount() int {
	n := 0
	for _, t := range d.Tweaks {
		if t.Applied {
			n++
		}
	}
	return n
}

// Categories returns the distinct tweak categories in first-appearance order.
func (d *Document) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, t := range d.Tweaks {
		if !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	return cats
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, d *Document) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
