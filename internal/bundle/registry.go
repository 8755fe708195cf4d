// internal/bundle/registry.go
//
// Bundle resolution and identity caching.
//
// Context
// -------
// Registry answers "which bundle applies to (kind, source, site)?".  Each
// lookup walks three tiers:
//
//  1. the registry's own identity caches,
//  2. the Store (hydrate, then sync against newer built-in defaults),
//  3. on-demand construction from the live content source plus defaults,
//     which persists the result.
//
// A Registry is meant to live for one request or one CLI run.  Its maps
// are owned by the instance and are not guarded by locks; hosts that share
// one Registry across goroutines must serialise access themselves.  The
// construct-on-miss step goes through Deps.Flights; hosts that hand every
// Registry the same group get one build per key across concurrent
// requests.
//
// Identifiers
// -----------
// Site ids and content source ids are positive.  A lookup with a zero or
// negative id resolves to nothing rather than widening the store query.
// Global bundles always carry source id 0.
//
// Caches
// ------
//   - bundles     surrogate id → *Bundle
//   - bySourceID  (kind, source id, site) → surrogate id
//   - byHandle    (kind, handle, site)    → surrogate id
//   - globals     site → *Bundle
//
// There is no TTL and no size bound.  Entries leave only through explicit
// invalidation or deletion.
//
// Notes
// -----
//   - Construction results are not cached; the next lookup finds the
//     freshly saved row in the store instead.
//   - Oxford commas, two spaces after periods.
package bundle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/seobundles/internal/metrics"
)

type sourceKey struct {
	kind Kind
	id   int64
	site int64
}

type handleKey struct {
	kind   Kind
	handle string
	site   int64
}

// Registry resolves, builds, caches, and invalidates bundles.
type Registry struct {
	content   ContentSourceLookup
	query     ContentQuery
	languages LanguageResolver
	defaults  DefaultsLoader
	store     Store
	meta      MetaCache
	sitemaps  SitemapCache
	log       *zap.SugaredLogger
	now       func() time.Time

	nextID     int
	bundles    map[int]*Bundle
	bySourceID map[sourceKey]int
	byHandle   map[handleKey]int
	globals    map[int64]*Bundle

	flights *singleflight.Group
}

// New returns an empty Registry bound to d.
func New(d Deps) *Registry {
	r := &Registry{
		content:    d.Content,
		query:      d.Query,
		languages:  d.Languages,
		defaults:   d.Defaults,
		store:      d.Store,
		meta:       d.Meta,
		sitemaps:   d.Sitemaps,
		log:        d.Log,
		now:        d.Now,
		bundles:    make(map[int]*Bundle),
		bySourceID: make(map[sourceKey]int),
		byHandle:   make(map[handleKey]int),
		globals:    make(map[int64]*Bundle),
		flights:    d.Flights,
	}
	if r.flights == nil {
		r.flights = new(singleflight.Group)
	}
	if r.log == nil {
		r.log = zap.S()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

/*──────────────────────────── global bundles ───────────────────────────────*/

// GlobalBundle returns the Global bundle for siteID.  It never fails for a
// valid site: when nothing is stored one is built from the built-in
// defaults.  A site id below 1 yields nil.
func (r *Registry) GlobalBundle(ctx context.Context, siteID int64) *Bundle {
	if siteID <= 0 {
		return nil
	}
	if b, ok := r.globals[siteID]; ok {
		metrics.BundleCacheHits.WithLabelValues(string(KindGlobal)).Inc()
		return b
	}
	metrics.BundleCacheMisses.WithLabelValues(string(KindGlobal)).Inc()

	var b *Bundle
	rec, err := r.store.Find(ctx, Criteria{Kind: KindGlobal, SourceID: 0, SiteID: siteID})
	if err != nil {
		r.storeError("find", err, "kind", KindGlobal, "site_id", siteID)
	}
	if rec != nil {
		if b, err = hydrate(rec); err != nil {
			r.log.Errorw("bundle hydrate failed", "kind", KindGlobal, "site_id", siteID, "err", err)
		} else {
			b = r.syncWithDefaults(ctx, b)
		}
	}
	if b == nil {
		b = r.buildGlobal(ctx, siteID, nil)
	}

	r.globals[siteID] = b
	return b
}

/*──────────────────────────── content bundles ──────────────────────────────*/

// BundleBySourceID returns the bundle for (kind, sourceID, siteID).  A nil
// bundle with a nil error means the source does not exist or has no URLs on
// that site.  The error is non-nil only for kinds the registry cannot
// resolve (ErrUnknownKind, ErrUnsupportedKind).
func (r *Registry) BundleBySourceID(ctx context.Context, kind Kind, sourceID, siteID int64) (*Bundle, error) {
	if kind == KindGlobal {
		return r.GlobalBundle(ctx, siteID), nil
	}
	if err := kind.check(); err != nil {
		return nil, err
	}
	if sourceID <= 0 || siteID <= 0 {
		return nil, nil
	}

	key := sourceKey{kind, sourceID, siteID}
	if b := r.bundles[r.bySourceID[key]]; b != nil {
		metrics.BundleCacheHits.WithLabelValues(string(kind)).Inc()
		return b, nil
	}
	metrics.BundleCacheMisses.WithLabelValues(string(kind)).Inc()

	rec, err := r.store.Find(ctx, Criteria{Kind: kind, SourceID: sourceID, SiteID: siteID})
	if err != nil {
		r.storeError("find", err, "kind", kind, "source_id", sourceID, "site_id", siteID)
	}
	if b := r.fromRecord(ctx, rec); b != nil {
		return b, nil
	}

	flightKey := fmt.Sprintf("id:%s:%d:%d", kind, sourceID, siteID)
	return r.buildOnce(flightKey, func() *Bundle {
		src := r.sourceByID(ctx, kind, sourceID)
		if src == nil {
			return nil
		}
		return r.build(ctx, src, siteID, nil)
	}), nil
}

// BundleBySourceHandle is BundleBySourceID keyed by the source handle.
//
// The store query filters on kind as well as handle and site, so a section
// and a category group that share a handle never resolve to each other.
func (r *Registry) BundleBySourceHandle(ctx context.Context, kind Kind, handle string, siteID int64) (*Bundle, error) {
	if kind == KindGlobal {
		return r.GlobalBundle(ctx, siteID), nil
	}
	if err := kind.check(); err != nil {
		return nil, err
	}
	if handle == "" || siteID <= 0 {
		return nil, nil
	}

	key := handleKey{kind, handle, siteID}
	if b := r.bundles[r.byHandle[key]]; b != nil {
		metrics.BundleCacheHits.WithLabelValues(string(kind)).Inc()
		return b, nil
	}
	metrics.BundleCacheMisses.WithLabelValues(string(kind)).Inc()

	rec, err := r.store.Find(ctx, Criteria{Kind: kind, SourceHandle: handle, SiteID: siteID})
	if err != nil {
		r.storeError("find", err, "kind", kind, "handle", handle, "site_id", siteID)
	}
	if b := r.fromRecord(ctx, rec); b != nil {
		return b, nil
	}

	flightKey := fmt.Sprintf("handle:%s:%s:%d", kind, handle, siteID)
	return r.buildOnce(flightKey, func() *Bundle {
		src := r.sourceByHandle(ctx, kind, handle)
		if src == nil {
			return nil
		}
		return r.build(ctx, src, siteID, nil)
	}), nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// fromRecord hydrates and syncs rec, then caches the result.  It returns
// nil when rec is nil or cannot be decoded.
func (r *Registry) fromRecord(ctx context.Context, rec *Record) *Bundle {
	if rec == nil {
		return nil
	}
	b, err := hydrate(rec)
	if err != nil {
		r.log.Errorw("bundle hydrate failed", "record_id", rec.ID, "err", err)
		return nil
	}
	b = r.syncWithDefaults(ctx, b)
	r.remember(b)
	return b
}

// buildOnce runs fn once per key among callers sharing the flight group.
// Every caller gets the same *Bundle back.
func (r *Registry) buildOnce(key string, fn func() *Bundle) *Bundle {
	v, _, _ := r.flights.Do(key, func() (any, error) {
		return fn(), nil
	})
	b, _ := v.(*Bundle)
	return b
}

// remember caches b under a new surrogate id and indexes it by source id
// and by handle.
func (r *Registry) remember(b *Bundle) {
	r.nextID++
	id := r.nextID
	r.bundles[id] = b
	r.bySourceID[sourceKey{b.SourceBundleType, b.SourceID, b.SourceSiteID}] = id
	r.byHandle[handleKey{b.SourceBundleType, b.SourceHandle, b.SourceSiteID}] = id
}

// forget drops every cache entry for (kind, sourceID, siteID).
func (r *Registry) forget(kind Kind, sourceID, siteID int64) {
	if kind == KindGlobal {
		delete(r.globals, siteID)
		return
	}
	key := sourceKey{kind, sourceID, siteID}
	id, ok := r.bySourceID[key]
	if !ok {
		return
	}
	if b := r.bundles[id]; b != nil {
		delete(r.byHandle, handleKey{kind, b.SourceHandle, siteID})
	}
	delete(r.bundles, id)
	delete(r.bySourceID, key)
}

// sourceByID looks the live content source up.  Lookup failures are
// logged and treated as absence.
func (r *Registry) sourceByID(ctx context.Context, kind Kind, id int64) *source {
	switch kind {
	case KindSection:
		s, err := r.content.SectionByID(ctx, id)
		if err != nil {
			r.log.Errorw("section lookup failed", "source_id", id, "err", err)
		}
		if s != nil {
			return sectionSource(s)
		}
	case KindCategoryGroup:
		g, err := r.content.CategoryGroupByID(ctx, id)
		if err != nil {
			r.log.Errorw("category group lookup failed", "source_id", id, "err", err)
		}
		if g != nil {
			return categoryGroupSource(g)
		}
	}
	return nil
}

func (r *Registry) sourceByHandle(ctx context.Context, kind Kind, handle string) *source {
	switch kind {
	case KindSection:
		s, err := r.content.SectionByHandle(ctx, handle)
		if err != nil {
			r.log.Errorw("section lookup failed", "handle", handle, "err", err)
		}
		if s != nil {
			return sectionSource(s)
		}
	case KindCategoryGroup:
		g, err := r.content.CategoryGroupByHandle(ctx, handle)
		if err != nil {
			r.log.Errorw("category group lookup failed", "handle", handle, "err", err)
		}
		if g != nil {
			return categoryGroupSource(g)
		}
	}
	return nil
}

func (r *Registry) storeError(op string, err error, kv ...any) {
	metrics.BundleStoreErrorsTotal.WithLabelValues(op).Inc()
	r.log.Errorw("bundle store "+op+" failed", append(kv, "err", err)...)
}

// sites returns every site, or nil after logging when the directory fails.
func (r *Registry) sites(ctx context.Context) []Site {
	sites, err := r.content.AllSites(ctx)
	if err != nil {
		r.log.Errorw("site lookup failed", "err", err)
		return nil
	}
	return sites
}
