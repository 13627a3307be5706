// Package componentlookup provides the built-in Storybook catalog tools.
//
// Three tools are registered via [Service.Register]:
//   - "lookupComponent"   — resolve one component by name, or list all.
//   - "searchComponents"  — ranked full-text search over the catalog.
//   - "suggestComponents" — fuzzy "did you mean" title suggestions.
//
// Every call fetches the catalog fresh from its source; nothing is cached
// between requests. All handlers are safe for concurrent use.
package componentlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uilens/storybook-mcp/catalog"
	"github.com/uilens/storybook-mcp/registry"
	"github.com/uilens/storybook-mcp/search"
)

// listingNote is appended to the full component listing to steer callers
// toward a targeted lookup.
const listingNote = "Pass componentName to get full details, stories, and props for a single component."

// FetchObserver receives the outcome of every catalog fetch.
type FetchObserver interface {
	ObserveCatalogFetch(ctx context.Context, source string, seconds float64, err error)
}

// Service owns the catalog tools' shared dependencies.
type Service struct {
	sources   *catalog.SourceStore
	searcher  *search.Searcher
	suggester *search.Suggester
	observer  FetchObserver
}

// Option configures a Service.
type Option func(*Service)

// WithObserver wires fetch metrics reporting into the service.
func WithObserver(o FetchObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithSearcher overrides the default full-text searcher.
func WithSearcher(searcher *search.Searcher) Option {
	return func(s *Service) { s.searcher = searcher }
}

// WithSuggester overrides the default fuzzy suggester.
func WithSuggester(suggester *search.Suggester) Option {
	return func(s *Service) { s.suggester = suggester }
}

// NewService creates a Service over the given catalog sources.
func NewService(sources *catalog.SourceStore, opts ...Option) *Service {
	s := &Service{
		sources:   sources,
		searcher:  search.NewSearcher(search.Config{}),
		suggester: search.NewSuggester(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds the catalog tools to the registry.
func (s *Service) Register(r *registry.Registry) error {
	if err := r.RegisterLocalFunc(
		"lookupComponent",
		"Look up a Storybook component by name and return its full record (stories, props, paths). Without componentName, returns a summary listing of every component in the catalog.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"componentName": map[string]any{
					"type":        "string",
					"description": "Component name to resolve. Matches the title (e.g. Forms/Button), the title without its category prefix (Button), or the catalog key; falls back to substring matching. Omit to list all components.",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Named catalog source to query. Omit to use the default source.",
				},
			},
		},
		s.lookupComponent,
		registry.WithTags("storybook", "catalog"),
	); err != nil {
		return err
	}

	if err := r.RegisterLocalFunc(
		"searchComponents",
		"Full-text search over the component catalog: titles, descriptions, prop names, and story names. Returns ranked hits with relevance scores.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of hits to return. Default 10.",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Named catalog source to query. Omit to use the default source.",
				},
			},
			"required": []string{"query"},
		},
		s.searchComponents,
		registry.WithTags("storybook", "catalog", "search"),
	); err != nil {
		return err
	}

	return r.RegisterLocalFunc(
		"suggestComponents",
		"Suggest component titles similar to a possibly misspelled name, ranked by phonetic and string similarity. Use when lookupComponent reports not found.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Approximate component name.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of suggestions. Default 5.",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Named catalog source to query. Omit to use the default source.",
				},
			},
			"required": []string{"name"},
		},
		s.suggestComponents,
		registry.WithTags("storybook", "catalog", "search"),
	)
}

// componentListing is the no-name lookup response.
type componentListing struct {
	TotalComponents int                        `json:"totalComponents"`
	Components      []catalog.ComponentSummary `json:"components"`
	Note            string                     `json:"note"`
}

func (s *Service) lookupComponent(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	name := stringArg(args, "componentName")

	ds, errResult := s.fetch(ctx, stringArg(args, "source"))
	if errResult != nil {
		return errResult, nil
	}

	if name == "" {
		listing := componentListing{
			TotalComponents: ds.Len(),
			Components:      catalog.Summarize(ds),
			Note:            listingNote,
		}
		return jsonResult(listing)
	}

	res := catalog.FindComponent(ds, name)
	if !res.Found {
		return registry.TextResult(notFoundMessage(name, res.Preview, res.Total)), nil
	}
	return jsonResult(res.Component)
}

func (s *Service) searchComponents(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("componentlookup: searchComponents: query must not be empty")
	}

	ds, errResult := s.fetch(ctx, stringArg(args, "source"))
	if errResult != nil {
		return errResult, nil
	}

	results, err := s.searcher.Search(query, intArg(args, "limit"), search.DocsFromDataSet(ds))
	if err != nil {
		return nil, fmt.Errorf("componentlookup: searchComponents: %w", err)
	}
	if results == nil {
		results = []search.Result{}
	}
	return jsonResult(results)
}

func (s *Service) suggestComponents(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	name := stringArg(args, "name")
	if name == "" {
		return nil, fmt.Errorf("componentlookup: suggestComponents: name must not be empty")
	}

	ds, errResult := s.fetch(ctx, stringArg(args, "source"))
	if errResult != nil {
		return errResult, nil
	}

	suggestions := s.suggester.Suggest(name, ds.Titles(), intArg(args, "limit"))
	if suggestions == nil {
		suggestions = []search.Suggestion{}
	}
	return jsonResult(suggestions)
}

// fetch retrieves a fresh dataset from the named source. On failure it
// returns a ready-to-send text result describing the error; fetch failures
// are reported to the caller as content, never as a protocol error.
func (s *Service) fetch(ctx context.Context, source string) (*catalog.DataSet, *mcp.CallToolResult) {
	client, err := s.sources.ClientFor(source)
	if err != nil {
		return nil, registry.TextResult(fetchFailureMessage(err))
	}

	start := time.Now()
	ds, err := client.FetchDataset(ctx)
	if s.observer != nil {
		s.observer.ObserveCatalogFetch(ctx, source, time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, registry.TextResult(fetchFailureMessage(err))
	}
	return ds, nil
}

func notFoundMessage(name string, preview []string, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Component %q not found. Available components: %s", name, strings.Join(preview, ", "))
	if total > len(preview) {
		fmt.Fprintf(&b, ", ... (%d total)", total)
	}
	return b.String()
}

func fetchFailureMessage(err error) string {
	return fmt.Sprintf("Failed to fetch component data: %v. Check that the Storybook data source is reachable.", err)
}

// jsonResult pretty-prints v into the single-item text envelope.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("componentlookup: encode result: %w", err)
	}
	return registry.TextResult(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
