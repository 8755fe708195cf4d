// internal/cache/downstream.go
//
// In-process rendered-meta and sitemap caches.
//
// Context
// -------
// The bundle registry does not render anything itself.  It tells two
// downstream caches when their content went stale:
//
//   - Meta, rendered <head> fragments keyed by (uri, site) and tagged
//     with the content-source id they were built from,
//   - Sitemaps, per-source sitemap documents keyed by (handle, site),
//     plus the single sitemap index document.
//
// Both satisfy the bundle package's MetaCache and SitemapCache contracts
// and count every invalidation in
// seobundle_downstream_invalidations_total.
package cache

import (
	"sync"

	"github.com/yanizio/seobundles/internal/metrics"
)

type pageKey struct {
	uri  string
	site int64
}

// Page is one rendered meta fragment.
type Page struct {
	SourceID int64
	Body     []byte
}

// Meta caches rendered meta by page.
type Meta struct {
	lru *LRU[pageKey, Page]
}

// NewMeta returns a Meta holding at most capacity pages.
func NewMeta(capacity int) *Meta {
	return &Meta{lru: NewLRU[pageKey, Page](capacity)}
}

func (m *Meta) Put(uri string, siteID int64, p Page) { m.lru.Add(pageKey{uri, siteID}, p) }

func (m *Meta) Get(uri string, siteID int64) (Page, bool) { return m.lru.Get(pageKey{uri, siteID}) }

// InvalidateByID drops every page rendered from sourceID on any site.
func (m *Meta) InvalidateByID(sourceID int64) {
	metrics.DownstreamInvalidationsTotal.WithLabelValues("meta").Inc()
	m.lru.RemoveFunc(func(_ pageKey, p Page) bool { return p.SourceID == sourceID })
}

// InvalidateByPath drops the page at uri on siteID.
func (m *Meta) InvalidateByPath(uri string, siteID int64) {
	metrics.DownstreamInvalidationsTotal.WithLabelValues("meta").Inc()
	m.lru.Remove(pageKey{uri, siteID})
}

type sitemapKey struct {
	handle string
	site   int64
}

// Sitemaps caches per-source sitemaps and the sitemap index.
type Sitemaps struct {
	lru *LRU[sitemapKey, []byte]

	mu    sync.Mutex
	index []byte
}

// NewSitemaps returns a Sitemaps holding at most capacity documents.
func NewSitemaps(capacity int) *Sitemaps {
	return &Sitemaps{lru: NewLRU[sitemapKey, []byte](capacity)}
}

func (s *Sitemaps) Put(handle string, siteID int64, doc []byte) {
	s.lru.Add(sitemapKey{handle, siteID}, doc)
}

func (s *Sitemaps) Get(handle string, siteID int64) ([]byte, bool) {
	return s.lru.Get(sitemapKey{handle, siteID})
}

func (s *Sitemaps) PutIndex(doc []byte) {
	s.mu.Lock()
	s.index = doc
	s.mu.Unlock()
}

func (s *Sitemaps) Index() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, s.index != nil
}

// Invalidate drops the sitemap of handle on siteID.
func (s *Sitemaps) Invalidate(handle string, siteID int64) {
	metrics.DownstreamInvalidationsTotal.WithLabelValues("sitemap").Inc()
	s.lru.Remove(sitemapKey{handle, siteID})
}

// InvalidateIndex drops the sitemap index.
func (s *Sitemaps) InvalidateIndex() {
	metrics.DownstreamInvalidationsTotal.WithLabelValues("sitemap_index").Inc()
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}
