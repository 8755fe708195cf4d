// internal/bundle/invalidate.go
//
// Invalidation fan-out, refresh, and deletion.
//
// Context
// -------
// Content saves arrive either as "source X changed" (a section or group
// was edited) or as "element Y changed" (an entry or category was saved).
// Both paths drop the registry's own cache entries, tell the rendered-meta
// and sitemap caches, and re-derive the bundle so SourceDateUpdated and the
// alt-site settings follow the content.
//
// The sitemap index is rebuilt from every sitemap, so it is invalidated
// once per call after the per-site loop, never once per site.
//
// Deletion is best effort: a failure on one site is logged and the loop
// carries on with the rest.  A content source id below 1 is refused up
// front, since the store would read a zero id as "any source".
package bundle

import (
	"context"
	"errors"

	"github.com/yanizio/seobundles/internal/metrics"
)

// InvalidateBySourceID refreshes every site's bundle for (kind, sourceID).
// When isNew is true the lookup alone creates the bundles and nothing
// downstream is invalidated.
func (r *Registry) InvalidateBySourceID(ctx context.Context, kind Kind, sourceID int64, isNew bool) {
	if !validSourceID(kind, sourceID) {
		r.log.Warnw("bundle invalidation skipped: invalid source id", "kind", kind, "source_id", sourceID)
		return
	}
	invalidated := false
	for _, site := range r.sites(ctx) {
		b, err := r.BundleBySourceID(ctx, kind, sourceID, site.ID)
		if err != nil {
			r.log.Warnw("bundle invalidation skipped", "kind", kind, "source_id", sourceID, "err", err)
			return
		}
		if b == nil {
			continue
		}
		r.log.Infow("invalidating bundle", "handle", b.SourceHandle, "site_id", site.ID)
		if isNew {
			continue
		}

		invalidated = true
		metrics.BundleInvalidationsTotal.WithLabelValues("source").Inc()
		r.meta.InvalidateByID(sourceID)
		r.sitemaps.Invalidate(b.SourceHandle, b.SourceSiteID)
		r.forget(kind, sourceID, site.ID)
		r.UpdateBundleByID(ctx, kind, sourceID, site.ID)
	}
	if invalidated {
		r.sitemaps.InvalidateIndex()
	}
}

// InvalidateByElement refreshes the bundle that owns a saved element.
func (r *Registry) InvalidateByElement(ctx context.Context, e Element, isNew bool) {
	ref := refFromElement(e)
	if ref.sourceID <= 0 || ref.siteID <= 0 {
		return
	}
	r.log.Infow("invalidating bundle", "uri", ref.uri, "site_id", ref.siteID)
	if isNew {
		return
	}

	metrics.BundleInvalidationsTotal.WithLabelValues("element").Inc()
	r.meta.InvalidateByPath(ref.uri, ref.siteID)
	if err := ref.kind.check(); err != nil {
		r.log.Debugw("element has no bundle", "kind", ref.kind, "err", err)
	} else {
		r.forget(ref.kind, ref.sourceID, ref.siteID)
		if b := r.UpdateBundleByID(ctx, ref.kind, ref.sourceID, ref.siteID); b != nil {
			r.sitemaps.Invalidate(b.SourceHandle, b.SourceSiteID)
		}
	}
	r.sitemaps.InvalidateIndex()
}

// UpdateBundleByID re-derives a persisted bundle from live content and
// saves it again.  Nothing happens when no record exists.  Only the
// requested site is rebuilt, Global bundles included.  The returned bundle
// is nil when nothing was rebuilt.
func (r *Registry) UpdateBundleByID(ctx context.Context, kind Kind, sourceID, siteID int64) *Bundle {
	if err := kind.check(); err != nil {
		r.log.Warnw("bundle update skipped", "kind", kind, "source_id", sourceID, "err", err)
		return nil
	}
	if siteID <= 0 || !validSourceID(kind, sourceID) {
		r.log.Warnw("bundle update skipped: invalid id", "kind", kind, "source_id", sourceID, "site_id", siteID)
		return nil
	}
	base := r.persisted(ctx, Criteria{Kind: kind, SourceID: sourceID, SiteID: siteID})
	if base == nil {
		return nil
	}

	var b *Bundle
	if kind == KindGlobal {
		delete(r.globals, siteID)
		b = r.buildGlobal(ctx, siteID, base)
		r.log.Infow("global bundle updated", "site_id", siteID)
	} else if src := r.sourceByID(ctx, kind, sourceID); src != nil {
		b = r.build(ctx, src, siteID, base)
	}
	return b
}

// DeleteBySourceID removes the stored bundle of (kind, sourceID) on every
// site.
func (r *Registry) DeleteBySourceID(ctx context.Context, kind Kind, sourceID int64) {
	if !validSourceID(kind, sourceID) {
		r.log.Warnw("bundle delete skipped: invalid source id", "kind", kind, "source_id", sourceID)
		return
	}
	for _, site := range r.sites(ctx) {
		c := Criteria{Kind: kind, SourceID: sourceID, SiteID: site.ID}
		rec, err := r.store.Find(ctx, c)
		if err != nil {
			r.storeError("find", err, "kind", kind, "source_id", sourceID, "site_id", site.ID)
			continue
		}
		if rec == nil {
			continue
		}
		if err := r.store.Delete(ctx, rec); err != nil {
			if errors.Is(err, ErrStale) {
				r.storeError("delete", err, "kind", kind, "source_id", sourceID, "site_id", site.ID, "conflict", true)
			} else {
				r.storeError("delete", err, "kind", kind, "source_id", sourceID, "site_id", site.ID)
			}
			continue
		}
		r.forget(kind, sourceID, site.ID)
		r.log.Infow("bundle deleted", "kind", kind, "source_id", sourceID, "site_id", site.ID)
	}
}

// validSourceID reports whether sourceID can name a bundle of kind.  Global
// bundles are addressed by source id 0 and nothing else.
func validSourceID(kind Kind, sourceID int64) bool {
	if kind == KindGlobal {
		return sourceID == 0
	}
	return sourceID > 0
}

// persisted returns the hydrated stored bundle matching c, or nil.
func (r *Registry) persisted(ctx context.Context, c Criteria) *Bundle {
	rec, err := r.store.Find(ctx, c)
	if err != nil {
		r.storeError("find", err, "kind", c.Kind, "source_id", c.SourceID, "site_id", c.SiteID)
		return nil
	}
	if rec == nil {
		return nil
	}
	b, err := hydrate(rec)
	if err != nil {
		r.log.Errorw("bundle hydrate failed", "record_id", rec.ID, "err", err)
		return nil
	}
	return b
}
