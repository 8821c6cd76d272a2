package config

import (
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/model"
)

var log = logging.Logger("restlens/config")

// Source identifies where a provider set came from.
type Source int

const (
	// FileSource is the provider file.
	FileSource Source = iota
	// SettingsSource is the editor settings. Its providers replace file
	// providers with the same id.
	SettingsSource
)

func (s Source) String() string {
	switch s {
	case FileSource:
		return "file"
	case SettingsSource:
		return "settings"
	}
	return "unknown"
}

// Store holds the current provider set, merged from a provider file and
// editor settings. Readers see either the old or the new set, never a mix.
type Store struct {
	lock     sync.Mutex
	file     []model.Provider
	settings []model.Provider

	providers atomic.Pointer[[]model.Provider]
}

// NewStore creates a store holding providers as its file providers.
func NewStore(providers []model.Provider) *Store {
	s := &Store{}
	s.Set(FileSource, providers)
	return s
}

// Set replaces the providers from one source and publishes the merged set.
// Validation problems are logged and do not prevent the update. Invalid
// providers are skipped when documents are matched.
func (s *Store) Set(src Source, providers []model.Provider) {
	cp := make([]model.Provider, len(providers))
	copy(cp, providers)

	s.lock.Lock()
	switch src {
	case FileSource:
		s.file = cp
	case SettingsSource:
		s.settings = cp
	}
	merged := Merge(s.file, s.settings)
	s.providers.Store(&merged)
	s.lock.Unlock()

	if err := model.ValidateProviders(merged); err != nil {
		log.Warnw("Invalid provider configuration", "source", src, "err", err)
	}
	log.Infow("Updated providers", "source", src, "count", len(merged))
}

// Merge returns base with providers from overrides replacing those with the
// same id. Overrides with new ids are appended in their own order.
func Merge(base, overrides []model.Provider) []model.Provider {
	merged := make([]model.Provider, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base))
	for _, p := range base {
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range overrides {
		if i, ok := index[p.ID]; ok {
			merged[i] = p
			continue
		}
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// All returns every provider, in declaration order.
func (s *Store) All() []model.Provider {
	p := s.providers.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Providers returns the providers that apply to the document identified by
// uri. A provider without file globs applies to every document.
func (s *Store) Providers(uri string) []model.Provider {
	all := s.All()
	docPath := documentPath(uri)

	var scoped []model.Provider
	for _, p := range all {
		if appliesTo(p, docPath) {
			scoped = append(scoped, p)
		}
	}
	return scoped
}

func appliesTo(p model.Provider, docPath string) bool {
	if len(p.Files) == 0 {
		return true
	}
	for _, pattern := range p.Files {
		if globMatch(pattern, docPath) {
			return true
		}
	}
	return false
}

// globMatch matches pattern against the full document path, and also against
// any trailing part of it so that relative patterns such as "**/*.md" or
// "docs/*.md" work without knowing the workspace root.
func globMatch(pattern, docPath string) bool {
	if strings.HasPrefix(pattern, "/") {
		ok, err := doublestar.Match(pattern, docPath)
		if err != nil {
			log.Warnw("Bad file pattern", "pattern", pattern, "err", err)
		}
		return ok
	}
	rel := strings.TrimPrefix(docPath, "/")
	for {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			log.Warnw("Bad file pattern", "pattern", pattern, "err", err)
			return false
		}
		if ok {
			return true
		}
		i := strings.IndexByte(rel, '/')
		if i < 0 {
			return false
		}
		rel = rel[i+1:]
	}
}

// documentPath returns the slash-separated path of a document URI. URIs
// without a path, such as untitled buffers, yield the opaque part.
func documentPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if u.Path != "" {
		return path.Clean(u.Path)
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return uri
}
