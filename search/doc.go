// Package search provides full-text and fuzzy search over the component
// catalog.
//
// It exists to:
//   - Keep catalog small and dependency-light
//   - Enable ranked discovery queries without touching the deterministic
//     two-phase name lookup in catalog
//
// # Full-text search
//
// The primary type is [Searcher], which indexes catalog documents with
// Bleve and answers BM25-ranked queries:
//
//	s := search.NewSearcher(search.Config{})
//	results, err := s.Search("button with variants", 10, search.DocsFromDataSet(ds))
//
// The Bleve index is cached by a fingerprint of the document set and only
// rebuilt when the documents change. Empty queries return the first N
// documents in catalog order. Non-empty queries rank by score with
// deterministic tie-breaking (score DESC, then ID ASC).
//
// # Fuzzy suggestions
//
// [Suggester] ranks catalog titles against a misspelled or approximate
// name using Double Metaphone phonetic candidate filtering followed by
// Jaro-Winkler similarity ranking, with a pure-similarity fallback at a
// higher threshold when no phonetic candidate exists.
//
// # Thread Safety
//
// Searcher and Suggester are safe for concurrent use.
package search
