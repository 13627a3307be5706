package docpage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uilens/storybook-mcp/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(registry.Config{ServerInfo: registry.ServerInfo{Name: "storybook-mcp", Version: "test"}})
	err := r.RegisterLocalFunc(
		"lookupComponent",
		"Look up a Storybook component by name.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"componentName": map[string]any{"type": "string"},
			},
		},
		func(_ context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
			return registry.TextResult("ok"), nil
		},
	)
	if err != nil {
		t.Fatalf("RegisterLocalFunc: %v", err)
	}
	return r
}

func TestDescribeTool_Levels(t *testing.T) {
	store := NewStore(StoreOptions{Resolver: testRegistry(t)})
	if err := store.RegisterDoc("lookupComponent", DocEntry{
		Summary:    "Resolve a component by name.",
		Notes:      "Fetches the catalog fresh on every call.",
		Examples:   []Example{{Name: "by base name", Args: map[string]any{"componentName": "button"}}},
		References: []string{"https://storybook.js.org/docs"},
	}); err != nil {
		t.Fatalf("RegisterDoc: %v", err)
	}

	summary, err := store.DescribeTool("lookupComponent", DetailSummary)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Summary != "Resolve a component by name." {
		t.Errorf("summary = %q", summary.Summary)
	}
	if summary.Tool != nil || summary.Notes != "" || summary.Examples != nil {
		t.Error("summary level leaked schema or full detail")
	}

	schema, err := store.DescribeTool("lookupComponent", DetailSchema)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if schema.Tool == nil || schema.Tool.Name != "lookupComponent" {
		t.Error("schema level missing tool definition")
	}
	if schema.Notes != "" {
		t.Error("schema level leaked notes")
	}

	full, err := store.DescribeTool("lookupComponent", DetailFull)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if full.Notes == "" || len(full.Examples) != 1 || len(full.References) != 1 {
		t.Errorf("full detail incomplete: %+v", full)
	}
}

func TestDescribeTool_SummaryFallsBackToToolDescription(t *testing.T) {
	store := NewStore(StoreOptions{Resolver: testRegistry(t)})
	doc, err := store.DescribeTool("lookupComponent", DetailSummary)
	if err != nil {
		t.Fatalf("DescribeTool: %v", err)
	}
	if doc.Summary != "Look up a Storybook component by name." {
		t.Errorf("summary = %q, want tool description", doc.Summary)
	}
}

func TestDescribeTool_Errors(t *testing.T) {
	store := NewStore(StoreOptions{Resolver: testRegistry(t)})
	if err := store.RegisterDoc("docsOnly", DocEntry{Summary: "No schema behind this."}); err != nil {
		t.Fatalf("RegisterDoc: %v", err)
	}

	if _, err := store.DescribeTool("missing", DetailSummary); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing tool: err = %v, want ErrNotFound", err)
	}
	if _, err := store.DescribeTool("docsOnly", DetailSchema); !errors.Is(err, ErrNoTool) {
		t.Errorf("docs-only schema: err = %v, want ErrNoTool", err)
	}
	if _, err := store.DescribeTool("lookupComponent", DetailLevel("everything")); !errors.Is(err, ErrInvalidDetail) {
		t.Errorf("bad level: err = %v, want ErrInvalidDetail", err)
	}
}

func TestRegisterDoc_ArgsCaps(t *testing.T) {
	store := NewStore(StoreOptions{})

	deep := map[string]any{}
	cur := deep
	for i := 0; i < MaxArgsDepth+1; i++ {
		next := map[string]any{}
		cur["nested"] = next
		cur = next
	}
	err := store.RegisterDoc("t", DocEntry{Examples: []Example{{Name: "deep", Args: deep}}})
	if !errors.Is(err, ErrArgsTooLarge) {
		t.Errorf("deep args: err = %v, want ErrArgsTooLarge", err)
	}

	wide := map[string]any{}
	for i := 0; i < MaxArgsKeys+1; i++ {
		wide[strings.Repeat("k", i+1)] = i
	}
	err = store.RegisterDoc("t", DocEntry{Examples: []Example{{Name: "wide", Args: wide}}})
	if !errors.Is(err, ErrArgsTooLarge) {
		t.Errorf("wide args: err = %v, want ErrArgsTooLarge", err)
	}
}

func TestListExamples_CapAndCopy(t *testing.T) {
	store := NewStore(StoreOptions{MaxExamples: 2})
	entry := DocEntry{Examples: []Example{
		{Name: "one", Args: map[string]any{"componentName": "button"}},
		{Name: "two"},
		{Name: "three"},
	}}
	if err := store.RegisterDoc("lookupComponent", entry); err != nil {
		t.Fatalf("RegisterDoc: %v", err)
	}

	examples, err := store.ListExamples("lookupComponent", 10)
	if err != nil {
		t.Fatalf("ListExamples: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("got %d examples, want MaxExamples cap 2", len(examples))
	}

	// Mutating a returned example must not affect the stored entry.
	examples[0].Args["componentName"] = "mutated"
	again, _ := store.ListExamples("lookupComponent", 1)
	if again[0].Args["componentName"] != "button" {
		t.Error("stored example args were mutated through the returned copy")
	}
}

func TestCatalog_SortedAndComplete(t *testing.T) {
	r := testRegistry(t)
	store := NewStore(StoreOptions{Resolver: r})
	if err := store.RegisterDoc("aDocsOnly", DocEntry{Summary: "docs only"}); err != nil {
		t.Fatalf("RegisterDoc: %v", err)
	}

	docs := store.Catalog()
	if len(docs) != 2 {
		t.Fatalf("got %d catalog entries, want 2", len(docs))
	}
	if docs[0].Name != "aDocsOnly" || docs[1].Name != "lookupComponent" {
		t.Errorf("catalog order = %s, %s; want sorted by name", docs[0].Name, docs[1].Name)
	}
}

func TestPageHandler(t *testing.T) {
	store := NewStore(StoreOptions{Resolver: testRegistry(t)})
	if err := store.RegisterDoc("lookupComponent", DocEntry{Notes: "Catalog fetched per call."}); err != nil {
		t.Fatalf("RegisterDoc: %v", err)
	}

	rec := httptest.NewRecorder()
	PageHandler("storybook-mcp", store).ServeHTTP(rec, httptest.NewRequest("GET", "/docs", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"lookupComponent", "Catalog fetched per call.", "componentName"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestJSONHandler(t *testing.T) {
	store := NewStore(StoreOptions{Resolver: testRegistry(t)})

	rec := httptest.NewRecorder()
	JSONHandler(store).ServeHTTP(rec, httptest.NewRequest("GET", "/docs.json", nil))

	var docs []struct {
		Name string      `json:"name"`
		Tool *model.Tool `json:"tool"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "lookupComponent" {
		t.Errorf("catalog = %+v", docs)
	}
	if docs[0].Tool == nil {
		t.Error("catalog entry missing tool definition")
	}
}
