package catalog

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Error values for consistent error handling by callers.
var (
	ErrSourceNotFound    = errors.New("catalog source not found")
	ErrInvalidSource     = errors.New("invalid catalog source")
	ErrInvalidSourceName = errors.New("invalid catalog source name")
)

// Source is one named catalog endpoint a deployment can serve from.
type Source struct {
	// Name identifies the source in tool arguments and config.
	Name string
	// URL is the catalog JSON endpoint.
	URL string
	// Headers are optional static request headers.
	Headers map[string]string
	// Default marks the source used when a request names none.
	Default bool
	// Timeout bounds each fetch against this source. Zero means no timeout.
	Timeout time.Duration
}

// SourceStore holds the configured catalog sources and a lazily built
// Client per source. It is safe for concurrent use.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]Source
	clients map[string]*Client
	def     string
}

// NewSourceStore creates an empty source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]Source),
		clients: make(map[string]*Client),
	}
}

// RegisterSource registers a source and returns its resolved name.
// The first registered source becomes the default unless a later source is
// explicitly marked Default.
func (s *SourceStore) RegisterSource(src Source) (string, error) {
	if src.URL == "" {
		return "", ErrInvalidSource
	}
	if src.Name == "" {
		return "", ErrInvalidSourceName
	}

	client, err := NewClient(src.URL, WithHeaders(src.Headers), WithTimeout(src.Timeout))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.Name] = src
	s.clients[src.Name] = client
	if s.def == "" || src.Default {
		s.def = src.Name
	}
	return src.Name, nil
}

// DescribeSource returns a source by name. An empty name resolves to the
// default source.
func (s *SourceStore) DescribeSource(name string) (Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = s.def
	}
	src, ok := s.sources[name]
	if !ok {
		return Source{}, ErrSourceNotFound
	}
	return src, nil
}

// ClientFor returns the fetch client for the named source. An empty name
// resolves to the default source.
func (s *SourceStore) ClientFor(name string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = s.def
	}
	client, ok := s.clients[name]
	if !ok {
		return nil, ErrSourceNotFound
	}
	return client, nil
}

// ListSources returns all registered sources in stable name order.
func (s *SourceStore) ListSources() []Source {
	s.mu.RLock()
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)

	out := make([]Source, 0, len(names))
	s.mu.RLock()
	for _, name := range names {
		out = append(out, s.sources[name])
	}
	s.mu.RUnlock()
	return out
}
