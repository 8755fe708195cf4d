// internal/bundle/deps.go
//
// Collaborator contracts.
//
// Context
// -------
// The registry reads from four collaborators (content directory, content
// query, language resolver, defaults loader), persists through a Store,
// and pushes invalidation signals out to two downstream caches.  The
// interfaces are defined here, next to their only consumer, so adapters in
// internal/content, internal/site, internal/defaults, internal/bundle/store,
// and internal/cache stay free of import cycles.
//
// Absence convention
// ------------------
// Lookups return (nil, nil) when the thing simply does not exist.  A
// non-nil error means the collaborator itself failed.
package bundle

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ContentSourceLookup is the read-only content and site directory.
type ContentSourceLookup interface {
	SectionByID(ctx context.Context, id int64) (*Section, error)
	SectionByHandle(ctx context.Context, handle string) (*Section, error)
	CategoryGroupByID(ctx context.Context, id int64) (*CategoryGroup, error)
	CategoryGroupByHandle(ctx context.Context, handle string) (*CategoryGroup, error)
	AllSections(ctx context.Context) ([]Section, error)
	AllCategoryGroups(ctx context.Context) ([]CategoryGroup, error)
	AllSites(ctx context.Context) ([]Site, error)
}

// ContentQuery finds the most recently updated content item under a source
// for one site.
type ContentQuery interface {
	MostRecentlyUpdated(ctx context.Context, kind Kind, sourceHandle string, siteID int64) (*ContentItem, error)
}

// LanguageResolver maps a site id onto its language tag.
type LanguageResolver interface {
	SiteLanguage(ctx context.Context, siteID int64) string
}

// DefaultsLoader returns the built-in defaults for a bundle kind.
type DefaultsLoader interface {
	Defaults(kind Kind) (Defaults, error)
}

// Store persists bundle records.  Find returns (nil, nil) when no record
// matches.  Delete returns ErrStale when the row changed underneath the
// caller.
type Store interface {
	Find(ctx context.Context, c Criteria) (*Record, error)
	FindAll(ctx context.Context, c Criteria) ([]Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, rec *Record) error
}

// MetaCache is the downstream rendered-meta cache.
type MetaCache interface {
	InvalidateByID(sourceID int64)
	InvalidateByPath(path string, siteID int64)
}

// SitemapCache is the downstream sitemap cache.
type SitemapCache interface {
	Invalidate(sourceHandle string, siteID int64)
	InvalidateIndex()
}

// Deps wires a Registry to its collaborators.  Log, Now, and Flights are
// optional.  Flights is the construct-on-miss group; a host that builds one
// Registry per request shares a single group across all of them so
// concurrent misses on the same key build once.
type Deps struct {
	Content   ContentSourceLookup
	Query     ContentQuery
	Languages LanguageResolver
	Defaults  DefaultsLoader
	Store     Store
	Meta      MetaCache
	Sitemaps  SitemapCache

	Log     *zap.SugaredLogger
	Now     func() time.Time
	Flights *singleflight.Group
}
