package catalog

import "strings"

// PreviewLimit caps the number of titles included in a not-found preview.
const PreviewLimit = 20

// LookupResult is the outcome of a FindComponent call: either a single
// matched record, or not-found carrying a bounded title preview plus the
// total component count for diagnostics.
type LookupResult struct {
	Found     bool
	Key       string
	Component ComponentRecord

	// Preview holds the first PreviewLimit titles when no match was found.
	Preview []string
	// Total is the full component count backing the preview.
	Total int
}

// FindComponent locates the component best matching name.
//
// Matching is case-insensitive and runs in two strict phases over the
// catalog in insertion order, first match wins:
//
//  1. Exact: the full title, the category-stripped title, or the mapping
//     key equals name.
//  2. Partial: the title or the category-stripped title contains name as a
//     substring. Keys are not consulted in this phase.
//
// The exact phase is exhausted across all three identity forms before any
// partial comparison happens, so a partial match never shadows an exact
// match in another field. Containment is one-directional: the title must
// contain the name, never the reverse.
func FindComponent(ds *DataSet, name string) LookupResult {
	want := strings.ToLower(name)

	for _, key := range ds.Keys() {
		rec, _ := ds.Component(key)
		title := strings.ToLower(rec.Title)
		base := strings.ToLower(rec.BaseTitle())
		if title == want || base == want || strings.ToLower(key) == want {
			return LookupResult{Found: true, Key: key, Component: rec}
		}
	}

	for _, key := range ds.Keys() {
		rec, _ := ds.Component(key)
		title := strings.ToLower(rec.Title)
		base := strings.ToLower(rec.BaseTitle())
		if strings.Contains(title, want) || strings.Contains(base, want) {
			return LookupResult{Found: true, Key: key, Component: rec}
		}
	}

	titles := ds.Titles()
	preview := titles
	if len(preview) > PreviewLimit {
		preview = preview[:PreviewLimit]
	}
	return LookupResult{Preview: preview, Total: len(titles)}
}

// ComponentSummary is the compact listing view of one component.
type ComponentSummary struct {
	Title         string `json:"title"`
	StoryCount    int    `json:"storyCount"`
	HasProps      bool   `json:"hasProps"`
	ComponentPath string `json:"componentPath,omitempty"`
	StorybookURL  string `json:"storybookUrl,omitempty"`
}

// Summarize projects every component into its listing view, in catalog
// insertion order. No filtering or sorting is applied.
func Summarize(ds *DataSet) []ComponentSummary {
	out := make([]ComponentSummary, 0, ds.Len())
	for _, key := range ds.Keys() {
		rec, _ := ds.Component(key)
		out = append(out, ComponentSummary{
			Title:         rec.Title,
			StoryCount:    rec.StoryCount,
			HasProps:      rec.HasProps(),
			ComponentPath: rec.ComponentPath,
			StorybookURL:  rec.StorybookURL,
		})
	}
	return out
}
