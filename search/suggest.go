package search

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Suggestion is one ranked title suggestion.
type Suggestion struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SuggesterOption is a functional option for configuring a [Suggester].
type SuggesterOption func(*Suggester)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched title to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) {
		s.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate is found and the suggester falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) {
		s.fuzzyThreshold = threshold
	}
}

// Suggester ranks catalog titles against an approximate component name.
//
// Candidates are selected in two stages: titles whose Double Metaphone
// codes overlap any code of the input are ranked by Jaro-Winkler similarity
// against the phonetic threshold; when no phonetic candidate qualifies, a
// fallback pass ranks all titles by pure Jaro-Winkler similarity against
// the (stricter) fuzzy threshold.
//
// Suggester is read-only after construction and safe for concurrent use.
type Suggester struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewSuggester returns a Suggester configured with the supplied options.
func NewSuggester(opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggest returns up to limit titles ranked by similarity to name.
// Titles are compared both in full and with their category prefix stripped;
// the better score wins.
func (s *Suggester) Suggest(name string, titles []string, limit int) []Suggestion {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" || len(titles) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	nameCodes := phoneticCodes(name)

	phonetic := make([]Suggestion, 0, len(titles))
	fuzzy := make([]Suggestion, 0, len(titles))
	for _, title := range titles {
		score := s.similarity(name, title)
		if phoneticOverlap(nameCodes, phoneticCodes(baseSegment(title))) {
			if score >= s.phoneticThreshold {
				phonetic = append(phonetic, Suggestion{Title: title, Score: score})
			}
			continue
		}
		if score >= s.fuzzyThreshold {
			fuzzy = append(fuzzy, Suggestion{Title: title, Score: score})
		}
	}

	ranked := phonetic
	if len(ranked) == 0 {
		ranked = fuzzy
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// similarity is the best Jaro-Winkler score of name against the full title
// and its category-stripped form, case-insensitive.
func (s *Suggester) similarity(name, title string) float64 {
	lower := strings.ToLower(title)
	score := matchr.JaroWinkler(name, lower, false)
	if base := strings.ToLower(baseSegment(title)); base != lower {
		if b := matchr.JaroWinkler(name, base, false); b > score {
			score = b
		}
	}
	return score
}

func baseSegment(title string) string {
	if i := strings.LastIndex(title, "/"); i >= 0 {
		return title[i+1:]
	}
	return title
}

// phoneticCodes returns the non-empty Double Metaphone codes of every word.
func phoneticCodes(s string) []string {
	var codes []string
	for _, word := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-' || r == '_'
	}) {
		p, sec := matchr.DoubleMetaphone(word)
		if p != "" {
			codes = append(codes, p)
		}
		if sec != "" && sec != p {
			codes = append(codes, sec)
		}
	}
	return codes
}

func phoneticOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
