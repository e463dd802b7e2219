// Package output provides formatters for displaying transform results
// in various output formats (pretty, plain, json, yaml, etc.).
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
//	if err := formatter.Format(&buf, result); err != nil {
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
)

// Row is one file outcome prepared for display. Sizes carry both raw
// bytes and pre-rendered human strings so formatters never disagree on
// unit formatting.
type Row struct {
	// Path is the source file path.
	Path string

	// Output is the result path. Empty for failures; equal to Path for
	// in-place replacements and skips.
	Output string

	// Action is what happened: optimized, converted, skipped, or failed.
	Action string

	// Format is the target format label, empty when no conversion was
	// requested.
	Format string

	// Size is the original size in bytes.
	Size int64

	// SizeHuman is the human-readable original size (e.g. "1.5 MiB").
	SizeHuman string

	// NewSize is the resulting size in bytes.
	NewSize int64

	// NewHuman is the human-readable resulting size.
	NewHuman string

	// Saved is the byte saving, never negative.
	Saved int64

	// SavedHuman is the human-readable saving.
	SavedHuman string

	// Percent is the saving relative to the original size.
	Percent float64

	// Duration is how long the transform took.
	Duration time.Duration

	// Error is the failure reason, empty on success.
	Error string
}

// BatchStats contains statistics about a batch run.
type BatchStats struct {
	// Requested is the number of files handed to the batch.
	Requested int

	// Succeeded is the number of files optimized or converted.
	Succeeded int

	// Skipped is the number of files left untouched by the skip policy.
	Skipped int

	// Failed is the number of files that errored.
	Failed int

	// TotalOriginal is the sum of original sizes, failures excluded.
	TotalOriginal int64

	// TotalNew is the sum of resulting sizes, failures excluded.
	TotalNew int64

	// TotalSaved is the total byte saving.
	TotalSaved int64

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration
}

// SavingsPercent returns the total saving relative to the original
// bytes, 0 when nothing was processed.
func (s BatchStats) SavingsPercent() float64 {
	if s.TotalOriginal <= 0 {
		return 0
	}
	return float64(s.TotalSaved) / float64(s.TotalOriginal) * 100
}

// Result contains the complete output data for formatting.
type Result struct {
	// Rows contains the per-file outcomes in input order.
	Rows []Row

	// Stats contains batch statistics.
	Stats BatchStats

	// Archive is the path of the packaged archive, when one was written.
	Archive string

	// Warnings contains any warning messages generated during the run.
	Warnings []string
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
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
