// Package supply resolves material supply catalogs and ranks supply sites
// by proximity to a candidate location.
package supply

import (
	"sync"

	"github.com/sells-group/sitecheck/internal/geometry"
)

// Site is one material supply location.
type Site struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
}

// Valid reports whether the site's coordinates are usable. Records failing
// this check are excluded at load time.
func (s Site) Valid() bool {
	return s.Name != "" && geometry.ValidCoordinate(s.Lat, s.Lon)
}

// Store holds the current supply catalog, replaced wholesale on reload.
type Store struct {
	mu     sync.RWMutex
	sites  []Site
	origin string
}

// NewStore creates an empty supply store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new catalog. Invalid sites are dropped.
func (s *Store) Replace(sites []Site, origin string) int {
	kept := make([]Site, 0, len(sites))
	for _, site := range sites {
		if site.Valid() {
			kept = append(kept, site)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = kept
	s.origin = origin
	return len(kept)
}

// Sites returns the current catalog. The returned slice is shared and must
// be treated as read-only.
func (s *Store) Sites() []Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sites
}

// Origin returns the name of the source that produced the current catalog.
func (s *Store) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}
