// Package bundletest provides in-memory implementations of every bundle
// collaborator, for tests of the registry and of its HTTP surface.
//
// Usage
// -----
//
//	fx := bundletest.New()
//	fx.Content.AddSite(bundle.Site{ID: 1, Language: "en-US"})
//	reg := bundle.New(fx.Deps())
//
// Every fake counts its calls so tests can assert cache behaviour.
package bundletest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/seobundles/internal/bundle"
)

// Clock is the fixed time returned by Fixture.Deps().Now.
var Clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixture bundles one instance of every fake.
type Fixture struct {
	Content   *Content
	Query     *Query
	Languages *Languages
	Defaults  *Defaults
	Store     *Store
	Meta      *MetaCache
	Sitemaps  *SitemapCache
}

// New returns a Fixture with empty fakes and the stock defaults from
// StockDefaults.
func New() *Fixture {
	return &Fixture{
		Content:   &Content{},
		Query:     &Query{Items: map[string]*bundle.ContentItem{}},
		Languages: &Languages{ByID: map[int64]string{}},
		Defaults:  StockDefaults("1.0.0"),
		Store:     &Store{},
		Meta:      &MetaCache{},
		Sitemaps:  &SitemapCache{},
	}
}

// Deps wires the fixture into bundle.Deps with a no-op logger and Clock.
func (f *Fixture) Deps() bundle.Deps {
	return bundle.Deps{
		Content:   f.Content,
		Query:     f.Query,
		Languages: f.Languages,
		Defaults:  f.Defaults,
		Store:     f.Store,
		Meta:      f.Meta,
		Sitemaps:  f.Sitemaps,
		Log:       zap.NewNop().Sugar(),
		Now:       func() time.Time { return Clock },
	}
}

//
// Content directory
//

// Content is an in-memory ContentSourceLookup.
type Content struct {
	mu       sync.Mutex
	Sites    []bundle.Site
	Sections []bundle.Section
	Groups   []bundle.CategoryGroup
	Calls    int
	Err      error

	// Gate, when set, holds every by-id and by-handle lookup until it is
	// closed.
	Gate chan struct{}
}

func (c *Content) wait() {
	if c.Gate != nil {
		<-c.Gate
	}
}

func (c *Content) AddSite(s bundle.Site)                   { c.mu.Lock(); c.Sites = append(c.Sites, s); c.mu.Unlock() }
func (c *Content) AddSection(s bundle.Section)             { c.mu.Lock(); c.Sections = append(c.Sections, s); c.mu.Unlock() }
func (c *Content) AddCategoryGroup(g bundle.CategoryGroup) { c.mu.Lock(); c.Groups = append(c.Groups, g); c.mu.Unlock() }

func (c *Content) SectionByID(_ context.Context, id int64) (*bundle.Section, error) {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	for i := range c.Sections {
		if c.Sections[i].ID == id {
			s := c.Sections[i]
			return &s, c.Err
		}
	}
	return nil, c.Err
}

func (c *Content) SectionByHandle(_ context.Context, handle string) (*bundle.Section, error) {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	for i := range c.Sections {
		if c.Sections[i].Handle == handle {
			s := c.Sections[i]
			return &s, c.Err
		}
	}
	return nil, c.Err
}

func (c *Content) CategoryGroupByID(_ context.Context, id int64) (*bundle.CategoryGroup, error) {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			g := c.Groups[i]
			return &g, c.Err
		}
	}
	return nil, c.Err
}

func (c *Content) CategoryGroupByHandle(_ context.Context, handle string) (*bundle.CategoryGroup, error) {
	c.wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	for i := range c.Groups {
		if c.Groups[i].Handle == handle {
			g := c.Groups[i]
			return &g, c.Err
		}
	}
	return nil, c.Err
}

func (c *Content) AllSections(context.Context) ([]bundle.Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bundle.Section(nil), c.Sections...), c.Err
}

func (c *Content) AllCategoryGroups(context.Context) ([]bundle.CategoryGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bundle.CategoryGroup(nil), c.Groups...), c.Err
}

func (c *Content) AllSites(context.Context) ([]bundle.Site, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bundle.Site(nil), c.Sites...), nil
}

//
// Content query
//

// Query is an in-memory ContentQuery keyed by kind, handle, and site.
type Query struct {
	mu    sync.Mutex
	Items map[string]*bundle.ContentItem
}

func queryKey(kind bundle.Kind, handle string, siteID int64) string {
	return fmt.Sprintf("%s|%s|%d", kind, handle, siteID)
}

// Set records item as the newest content under (kind, handle, siteID).
func (q *Query) Set(kind bundle.Kind, handle string, siteID int64, item *bundle.ContentItem) {
	q.mu.Lock()
	q.Items[queryKey(kind, handle, siteID)] = item
	q.mu.Unlock()
}

func (q *Query) MostRecentlyUpdated(_ context.Context, kind bundle.Kind, handle string, siteID int64) (*bundle.ContentItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.Items[queryKey(kind, handle, siteID)], nil
}

//
// Languages
//

// Languages resolves from ByID and falls back to "en".
type Languages struct {
	ByID map[int64]string
}

func (l *Languages) SiteLanguage(_ context.Context, siteID int64) string {
	if lang, ok := l.ByID[siteID]; ok {
		return lang
	}
	return "en"
}

//
// Defaults
//

// Defaults is a mutable DefaultsLoader.
type Defaults struct {
	mu     sync.Mutex
	ByKind map[bundle.Kind]bundle.Defaults
}

// StockDefaults mirrors the shipped conf/bundles files at version.
func StockDefaults(version string) *Defaults {
	settings := bundle.Settings{
		SEOImageSource:     bundle.ImageFromAsset,
		TwitterImageSource: bundle.ImageSameAsSEO,
		OGImageSource:      bundle.ImageSameAsSEO,
	}
	return &Defaults{ByKind: map[bundle.Kind]bundle.Defaults{
		bundle.KindGlobal: {
			BundleVersion: version,
			SourceName:    "__GLOBAL_BUNDLE__",
			SourceHandle:  "__GLOBAL_BUNDLE__",
			SourceType:    "__GLOBAL_BUNDLE__",
			Settings:      settings,
		},
		bundle.KindSection:       {BundleVersion: version, Settings: settings},
		bundle.KindCategoryGroup: {BundleVersion: version, SourceType: "category", Settings: settings},
	}}
}

// Set replaces the defaults of kind.
func (d *Defaults) Set(kind bundle.Kind, def bundle.Defaults) {
	d.mu.Lock()
	d.ByKind[kind] = def
	d.mu.Unlock()
}

func (d *Defaults) Defaults(kind bundle.Kind) (bundle.Defaults, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	def, ok := d.ByKind[kind]
	if !ok {
		return bundle.Defaults{}, fmt.Errorf("no defaults for %s", kind)
	}
	return def, nil
}

//
// Store
//

// Store is an in-memory bundle.Store with call counters and injectable
// delete failures.
type Store struct {
	mu      sync.Mutex
	records []bundle.Record
	nextID  int64

	Finds, FindAlls, Saves, Deletes int

	// DeleteErr maps a site id to the error Delete returns for it.
	DeleteErr map[int64]error
}

func matches(rec *bundle.Record, c bundle.Criteria) bool {
	switch {
	case c.Kind != "" && rec.SourceBundleType != string(c.Kind):
		return false
	case c.NotKind != "" && rec.SourceBundleType == string(c.NotKind):
		return false
	case (c.SourceID != 0 || c.Kind == bundle.KindGlobal) && rec.SourceID != c.SourceID:
		return false
	case c.SourceHandle != "" && rec.SourceHandle != c.SourceHandle:
		return false
	case c.SiteID != 0 && rec.SourceSiteID != c.SiteID:
		return false
	}
	return true
}

func (s *Store) Find(_ context.Context, c bundle.Criteria) (*bundle.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finds++
	for i := range s.records {
		if matches(&s.records[i], c) {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) FindAll(_ context.Context, c bundle.Criteria) ([]bundle.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindAlls++
	var out []bundle.Record
	for i := range s.records {
		if matches(&s.records[i], c) {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, rec *bundle.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	now := Clock
	if rec.ID == 0 {
		s.nextID++
		rec.ID = s.nextID
		rec.UID = fmt.Sprintf("uid-%d", rec.ID)
		rec.DateCreated = now
	}
	rec.DateUpdated = now
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i] = *rec
			return nil
		}
	}
	s.records = append(s.records, *rec)
	sort.Slice(s.records, func(i, j int) bool { return s.records[i].ID < s.records[j].ID })
	return nil
}

func (s *Store) Delete(_ context.Context, rec *bundle.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes++
	if err := s.DeleteErr[rec.SourceSiteID]; err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return bundle.ErrStale
}

// Put inserts rec directly, bypassing Save's counter.
func (s *Store) Put(rec bundle.Record) {
	s.mu.Lock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// Records returns a copy of every stored record in id order.
func (s *Store) Records() []bundle.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bundle.Record(nil), s.records...)
}

// FindCount returns Finds under the store lock.
func (s *Store) FindCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Finds
}

// ResetCounts zeroes every call counter.
func (s *Store) ResetCounts() {
	s.mu.Lock()
	s.Finds, s.FindAlls, s.Saves, s.Deletes = 0, 0, 0, 0
	s.mu.Unlock()
}

//
// Downstream caches
//

// MetaCache records rendered-meta invalidations.
type MetaCache struct {
	mu    sync.Mutex
	IDs   []int64
	Paths []string
}

func (m *MetaCache) InvalidateByID(sourceID int64) {
	m.mu.Lock()
	m.IDs = append(m.IDs, sourceID)
	m.mu.Unlock()
}

func (m *MetaCache) InvalidateByPath(path string, siteID int64) {
	m.mu.Lock()
	m.Paths = append(m.Paths, fmt.Sprintf("%s@%d", path, siteID))
	m.mu.Unlock()
}

// SitemapCache records sitemap invalidations.
type SitemapCache struct {
	mu         sync.Mutex
	Sitemaps   []string
	IndexCalls int
}

func (s *SitemapCache) Invalidate(handle string, siteID int64) {
	s.mu.Lock()
	s.Sitemaps = append(s.Sitemaps, fmt.Sprintf("%s@%d", handle, siteID))
	s.mu.Unlock()
}

func (s *SitemapCache) InvalidateIndex() {
	s.mu.Lock()
	s.IndexCalls++
	s.mu.Unlock()
}
