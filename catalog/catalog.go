// Package catalog defines the Storybook component catalog model and the
// operations the server exposes over it: fetching the remote dataset,
// resolving a component by name, and summarizing the catalog.
//
// A DataSet preserves the key order of the upstream JSON object. Lookup
// tie-breaking is "first match in iteration order", so the order entries were
// loaded is part of the contract and must not be re-sorted.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PropDescriptor describes a single component prop.
type PropDescriptor struct {
	// Description is optional human-readable prop documentation.
	Description string `json:"description,omitempty"`

	// Control is the Storybook control kind (e.g. "select", "boolean").
	Control string `json:"control,omitempty"`

	// Options lists allowed values for enumerated controls, in the order
	// the upstream catalog declares them.
	Options []string `json:"options,omitempty"`
}

// StoryRef references one usage example ("story") of a component.
type StoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ComponentRecord is one documented UI component.
//
// Title is always present and category-qualified (e.g. "Forms/Button").
// StoryCount equals len(Stories).
type ComponentRecord struct {
	Title         string                    `json:"title"`
	ComponentPath string                    `json:"componentPath,omitempty"`
	ImportPath    string                    `json:"importPath,omitempty"`
	Description   string                    `json:"description,omitempty"`
	Props         map[string]PropDescriptor `json:"props,omitempty"`
	StoryCount    int                       `json:"storyCount"`
	Stories       []StoryRef                `json:"stories,omitempty"`
	StorybookURL  string                    `json:"storybookUrl,omitempty"`
}

// HasProps reports whether the record declares at least one prop.
func (r ComponentRecord) HasProps() bool {
	return len(r.Props) > 0
}

// BaseTitle returns the title with its leading "Category/" prefix stripped:
// the last segment after splitting on "/". Titles without a slash are
// returned unchanged.
func (r ComponentRecord) BaseTitle() string {
	if i := strings.LastIndex(r.Title, "/"); i >= 0 {
		return r.Title[i+1:]
	}
	return r.Title
}

// DataSet is one fetched snapshot of the component catalog.
//
// The components view keeps the upstream JSON object's key order. The raw
// entries view is carried through untouched; lookup and summarization never
// consume it. A DataSet is read-only once decoded.
type DataSet struct {
	keys       []string
	components map[string]ComponentRecord

	// Entries is the secondary view of raw, unaggregated story entries.
	Entries map[string]json.RawMessage
}

// Len returns the number of components in the catalog.
func (d *DataSet) Len() int {
	return len(d.keys)
}

// Keys returns the component keys in upstream insertion order.
// The returned slice must not be mutated.
func (d *DataSet) Keys() []string {
	return d.keys
}

// Component returns the record stored under key.
func (d *DataSet) Component(key string) (ComponentRecord, bool) {
	rec, ok := d.components[key]
	return rec, ok
}

// Titles returns every component title in insertion order.
func (d *DataSet) Titles() []string {
	titles := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		titles = append(titles, d.components[k].Title)
	}
	return titles
}

// wireDataSet matches the upstream JSON envelope. Components is decoded
// manually to preserve key order.
type wireDataSet struct {
	Components json.RawMessage            `json:"components"`
	Entries    map[string]json.RawMessage `json:"entries,omitempty"`
}

// UnmarshalJSON decodes the dataset while recording the order of the
// "components" object keys. encoding/json maps are unordered, so the
// components object is walked token by token instead.
func (d *DataSet) UnmarshalJSON(data []byte) error {
	var wire wireDataSet
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("catalog: decode dataset: %w", err)
	}

	d.keys = nil
	d.components = make(map[string]ComponentRecord)
	d.Entries = wire.Entries

	if len(wire.Components) == 0 || bytes.Equal(wire.Components, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(wire.Components))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("catalog: decode components: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog: components must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("catalog: decode components: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: component key must be a string, got %v", tok)
		}

		var rec ComponentRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("catalog: decode component %q: %w", key, err)
		}
		if rec.Title == "" {
			return fmt.Errorf("catalog: component %q has no title", key)
		}

		if _, dup := d.components[key]; !dup {
			d.keys = append(d.keys, key)
		}
		d.components[key] = rec
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("catalog: decode components: %w", err)
	}

	return nil
}
