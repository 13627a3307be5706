// Package docpage provides progressive documentation for registered tools,
// delivered in tiered detail (summary, schema, full) so long content stays
// out of context until explicitly requested, plus an HTML rendering of the
// whole catalog for the HTTP transport.
//
// Example Args are validated at registration against depth and size caps to
// keep examples safe to inline into LLM context. Use errors.Is to check the
// package error values.
package docpage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/toolfoundation/model"
)

// Detail levels.
const (
	// DetailSummary returns the short description only.
	DetailSummary DetailLevel = "summary"
	// DetailSchema adds the tool definition with its input schema.
	DetailSchema DetailLevel = "schema"
	// DetailFull adds notes, examples, and references on top of schema.
	DetailFull DetailLevel = "full"
)

// Example args caps.
const (
	// MaxArgsDepth is the maximum nesting depth for example Args.
	MaxArgsDepth = 5
	// MaxArgsKeys is the maximum total size (map keys plus slice items)
	// across all levels of example Args.
	MaxArgsKeys = 50
)

var (
	ErrNotFound      = errors.New("docpage: tool not found")
	ErrNoTool        = errors.New("docpage: tool definition unavailable")
	ErrInvalidDetail = errors.New("docpage: invalid detail level")
	ErrArgsTooLarge  = errors.New("docpage: example args exceed caps")
)

// DetailLevel selects how much documentation DescribeTool returns.
type DetailLevel string

// Example is one worked invocation of a tool.
type Example struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
}

// DocEntry is the human-authored documentation attached to a tool.
type DocEntry struct {
	// Summary is a one or two line description overriding Tool.Description.
	Summary string `json:"summary,omitempty"`
	// Notes hold constraints, auth hints, and error semantics.
	Notes string `json:"notes,omitempty"`
	// Examples is a small worked-invocation set.
	Examples []Example `json:"examples,omitempty"`
	// References are external URLs or resource IDs.
	References []string `json:"references,omitempty"`
}

// ToolDoc is the assembled documentation returned by DescribeTool.
type ToolDoc struct {
	Name       string      `json:"name"`
	Summary    string      `json:"summary"`
	Tool       *model.Tool `json:"tool,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Examples   []Example   `json:"examples,omitempty"`
	References []string    `json:"references,omitempty"`
}

// ToolResolver supplies tool definitions. *registry.Registry satisfies it.
type ToolResolver interface {
	GetTool(name string) (model.Tool, error)
	ListAll() []model.Tool
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Resolver supplies tool definitions for schema and full detail.
	Resolver ToolResolver
	// MaxExamples caps how many examples DescribeTool and ListExamples
	// return. Zero means 3.
	MaxExamples int
}

// Store holds per-tool documentation. Safe for concurrent use.
type Store struct {
	resolver    ToolResolver
	maxExamples int

	mu   sync.RWMutex
	docs map[string]DocEntry
}

// NewStore creates a documentation store.
func NewStore(opts StoreOptions) *Store {
	max := opts.MaxExamples
	if max <= 0 {
		max = 3
	}
	return &Store{
		resolver:    opts.Resolver,
		maxExamples: max,
		docs:        make(map[string]DocEntry),
	}
}

// RegisterDoc attaches documentation to a tool name. Example Args are
// validated against the depth and size caps; on violation the entry is
// rejected with ErrArgsTooLarge.
func (s *Store) RegisterDoc(name string, entry DocEntry) error {
	for _, ex := range entry.Examples {
		if err := validateArgs(ex.Args); err != nil {
			return fmt.Errorf("%w: example %q: %v", ErrArgsTooLarge, ex.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = entry
	return nil
}

// DescribeTool returns documentation for name at the requested detail level.
//
// Summary works from docs alone; schema and full additionally require the
// tool to be resolvable and fail with ErrNoTool when it is not.
func (s *Store) DescribeTool(name string, level DetailLevel) (ToolDoc, error) {
	s.mu.RLock()
	entry, hasDoc := s.docs[name]
	s.mu.RUnlock()

	var tool *model.Tool
	if s.resolver != nil {
		if t, err := s.resolver.GetTool(name); err == nil {
			tool = &t
		}
	}
	if !hasDoc && tool == nil {
		return ToolDoc{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	doc := ToolDoc{Name: name, Summary: entry.Summary}
	if doc.Summary == "" && tool != nil {
		doc.Summary = tool.Description
	}

	switch level {
	case DetailSummary:
		return doc, nil
	case DetailSchema, DetailFull:
		if tool == nil {
			return ToolDoc{}, fmt.Errorf("%w: %s", ErrNoTool, name)
		}
		doc.Tool = tool
		if level == DetailSchema {
			return doc, nil
		}
		doc.Notes = entry.Notes
		doc.Examples = capExamples(entry.Examples, s.maxExamples)
		doc.References = entry.References
		return doc, nil
	default:
		return ToolDoc{}, fmt.Errorf("%w: %q", ErrInvalidDetail, level)
	}
}

// ListExamples returns up to max examples for name. The effective limit is
// min(max, the store's MaxExamples).
func (s *Store) ListExamples(name string, max int) ([]Example, error) {
	s.mu.RLock()
	entry, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if max <= 0 || max > s.maxExamples {
		max = s.maxExamples
	}
	return capExamples(entry.Examples, max), nil
}

// Catalog returns full-detail docs for every resolvable tool plus every
// docs-only registration, sorted by name.
func (s *Store) Catalog() []ToolDoc {
	names := make(map[string]struct{})
	if s.resolver != nil {
		for _, t := range s.resolver.ListAll() {
			names[t.Name] = struct{}{}
		}
	}
	s.mu.RLock()
	for name := range s.docs {
		names[name] = struct{}{}
	}
	s.mu.RUnlock()

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	docs := make([]ToolDoc, 0, len(sorted))
	for _, name := range sorted {
		doc, err := s.DescribeTool(name, DetailFull)
		if err != nil {
			// Docs-only entries have no schema; fall back to summary.
			doc, err = s.DescribeTool(name, DetailSummary)
			if err != nil {
				continue
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func capExamples(examples []Example, max int) []Example {
	if len(examples) == 0 {
		return nil
	}
	if len(examples) > max {
		examples = examples[:max]
	}
	out := make([]Example, len(examples))
	for i, ex := range examples {
		out[i] = Example{
			Name:        ex.Name,
			Description: ex.Description,
			Args:        deepCopyMap(ex.Args),
		}
	}
	return out
}

// validateArgs enforces the depth and total-size caps on example Args.
func validateArgs(args map[string]any) error {
	total := 0
	var walk func(v any, depth int) error
	walk = func(v any, depth int) error {
		if depth > MaxArgsDepth {
			return fmt.Errorf("nesting exceeds depth %d", MaxArgsDepth)
		}
		switch t := v.(type) {
		case map[string]any:
			total += len(t)
			if total > MaxArgsKeys {
				return fmt.Errorf("size exceeds %d keys", MaxArgsKeys)
			}
			for _, child := range t {
				if err := walk(child, depth+1); err != nil {
					return err
				}
			}
		case []any:
			total += len(t)
			if total > MaxArgsKeys {
				return fmt.Errorf("size exceeds %d keys", MaxArgsKeys)
			}
			for _, child := range t {
				if err := walk(child, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(args, 1)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = deepCopyValue(child)
		}
		return out
	default:
		return v
	}
}
