package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/uilens/storybook-mcp/catalog"
)

// Doc is one searchable catalog document.
type Doc struct {
	// ID is the component's mapping key.
	ID string
	// Title is the category-qualified component title.
	Title string
	// Text is the combined descriptive text: description, prop names, and
	// story names.
	Text string
}

// Result is one ranked search hit.
type Result struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Config configures a Searcher.
type Config struct {
	// TitleBoost multiplies the score of title-field matches. Default: 3.
	TitleBoost float64

	// MaxDocs limits how many documents are indexed (0 = unlimited).
	MaxDocs int

	// MaxDocTextLen truncates long document text before indexing
	// (0 = unlimited).
	MaxDocTextLen int
}

// indexDoc is the shape handed to Bleve.
type indexDoc struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Searcher answers full-text queries over catalog documents. It caches the
// Bleve index keyed by a fingerprint of the document set, rebuilding only
// when the documents change. Safe for concurrent use.
type Searcher struct {
	cfg Config

	mu          sync.Mutex
	fingerprint string
	idx         bleve.Index
	order       []string          // doc IDs in given order, for empty queries
	titles      map[string]string // doc ID -> title
}

// NewSearcher creates a Searcher with the given config.
func NewSearcher(cfg Config) *Searcher {
	if cfg.TitleBoost <= 0 {
		cfg.TitleBoost = 3
	}
	return &Searcher{cfg: cfg}
}

// Search ranks docs against query and returns up to limit results.
// An empty query returns the first limit documents in the order given.
func (s *Searcher) Search(query string, limit int, docs []Doc) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.cfg.MaxDocs > 0 && len(docs) > s.cfg.MaxDocs {
		docs = docs[:s.cfg.MaxDocs]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureIndex(docs); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return s.headResults(limit), nil
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(s.cfg.TitleBoost)
	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField("text")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(titleQuery, textQuery), limit, 0, false)
	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", query, err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, Result{
			ID:    hit.ID,
			Title: s.titles[hit.ID],
			Score: hit.Score,
		})
	}

	// Bleve's ordering is already score DESC; pin the tie-break to ID ASC
	// so results are deterministic across rebuilds.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// ensureIndex rebuilds the Bleve index when the document set changed.
func (s *Searcher) ensureIndex(docs []Doc) error {
	fp := computeFingerprint(docs)
	if s.idx != nil && fp == s.fingerprint {
		return nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}

	batch := idx.NewBatch()
	order := make([]string, 0, len(docs))
	titles := make(map[string]string, len(docs))
	for _, doc := range docs {
		text := doc.Text
		if s.cfg.MaxDocTextLen > 0 && len(text) > s.cfg.MaxDocTextLen {
			text = text[:s.cfg.MaxDocTextLen]
		}
		if err := batch.Index(doc.ID, indexDoc{Title: doc.Title, Text: text}); err != nil {
			_ = idx.Close()
			return fmt.Errorf("search: index %s: %w", doc.ID, err)
		}
		order = append(order, doc.ID)
		titles[doc.ID] = doc.Title
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("search: batch index: %w", err)
	}

	if s.idx != nil {
		_ = s.idx.Close()
	}
	s.idx = idx
	s.fingerprint = fp
	s.order = order
	s.titles = titles
	return nil
}

// headResults returns the first limit documents, unranked.
func (s *Searcher) headResults(limit int) []Result {
	n := limit
	if n > len(s.order) {
		n = len(s.order)
	}
	results := make([]Result, 0, n)
	for _, id := range s.order[:n] {
		results = append(results, Result{ID: id, Title: s.titles[id]})
	}
	return results
}

// DocsFromDataSet projects a catalog dataset into searchable documents, in
// catalog iteration order.
func DocsFromDataSet(ds *catalog.DataSet) []Doc {
	docs := make([]Doc, 0, ds.Len())
	for _, key := range ds.Keys() {
		rec, _ := ds.Component(key)

		props := make([]string, 0, len(rec.Props))
		for name := range rec.Props {
			props = append(props, name)
		}
		sort.Strings(props)

		var text strings.Builder
		text.WriteString(rec.Description)
		for _, name := range props {
			text.WriteByte(' ')
			text.WriteString(name)
		}
		for _, story := range rec.Stories {
			text.WriteByte(' ')
			text.WriteString(story.Name)
		}

		docs = append(docs, Doc{
			ID:    key,
			Title: rec.Title,
			Text:  strings.TrimSpace(text.String()),
		})
	}
	return docs
}
