// internal/bundle/build.go
//
// Bundle construction from content sources.
//
// Context
// -------
// A bundle is derived, never edited in place.  Construction layers three
// inputs, highest precedence last:
//
//  1. built-in defaults for the kind,
//  2. attributes of the live source (id, name, handle, type, template,
//     site, alt-site settings, last content update),
//  3. caller-supplied base settings, used by sync and refresh so that
//     image settings a user already customised survive.
//
// The merged bundle is validated.  A valid bundle is upserted into the
// store keyed by (kind, source id, site).  An invalid one is logged with
// its field errors and returned unsaved, so the caller can still use it
// for the current request.
package bundle

import (
	"context"
	"time"

	"github.com/yanizio/seobundles/internal/metrics"
)

// buildGlobal derives and persists the Global bundle for siteID.
func (r *Registry) buildGlobal(ctx context.Context, siteID int64, base *Bundle) *Bundle {
	b := &Bundle{}
	r.defaultsFor(KindGlobal).apply(b)
	b.SourceBundleType = KindGlobal
	b.SourceID = 0
	b.SourceSiteID = siteID
	b.SourceDateUpdated = r.now()
	if base != nil {
		b.Settings = b.Settings.overlay(base.Settings)
	}

	metrics.BundleBuildTotal.WithLabelValues(string(KindGlobal)).Inc()
	r.persist(ctx, b)
	return b
}

// build derives and persists the bundle of src for siteID.  It returns nil
// when src has no settings for siteID or does not render URLs there.
func (r *Registry) build(ctx context.Context, src *source, siteID int64, base *Bundle) *Bundle {
	var target *SiteSettings
	alt := make(map[int64]SiteSettings, len(src.siteSettings))
	for _, ss := range src.siteSettings {
		if ss.SiteID == siteID {
			t := ss
			target = &t
		}
		if !ss.HasURLs {
			continue
		}
		ss.Language = r.languages.SiteLanguage(ctx, ss.SiteID)
		alt[ss.SiteID] = ss
	}
	if target == nil || !target.HasURLs {
		return nil
	}

	b := &Bundle{}
	r.defaultsFor(src.kind).apply(b)
	b.SourceBundleType = src.kind
	b.SourceID = src.id
	b.SourceName = src.name
	b.SourceHandle = src.handle
	if src.typ != "" {
		b.SourceType = src.typ
	}
	b.SourceTemplate = target.Template
	b.SourceSiteID = siteID
	b.SourceAltSiteSettings = alt
	b.SourceDateUpdated = r.lastUpdated(ctx, src, siteID)
	if base != nil {
		b.Settings = b.Settings.overlay(base.Settings)
	}

	metrics.BundleBuildTotal.WithLabelValues(string(src.kind)).Inc()
	r.persist(ctx, b)
	return b
}

// lastUpdated returns the update time of the newest content item under src
// on siteID, its creation time when it was never updated, or now when the
// source has no content yet.
func (r *Registry) lastUpdated(ctx context.Context, src *source, siteID int64) time.Time {
	item, err := r.query.MostRecentlyUpdated(ctx, src.kind, src.handle, siteID)
	if err != nil {
		r.log.Errorw("content query failed",
			"kind", src.kind, "handle", src.handle, "site_id", siteID, "err", err)
	}
	if item == nil {
		return r.now()
	}
	if item.DateUpdated != nil && !item.DateUpdated.IsZero() {
		return *item.DateUpdated
	}
	return item.DateCreated
}

func (r *Registry) defaultsFor(kind Kind) Defaults {
	d, err := r.defaults.Defaults(kind)
	if err != nil {
		r.log.Errorw("built-in defaults unavailable", "kind", kind, "err", err)
	}
	return d
}

// persist validates b and upserts it.  Failures are logged, never returned.
func (r *Registry) persist(ctx context.Context, b *Bundle) {
	if errs := validateBundle(b); errs != nil {
		metrics.BundleValidationErrorsTotal.WithLabelValues(string(b.SourceBundleType)).Inc()
		r.log.Errorw("bundle failed validation",
			"kind", b.SourceBundleType,
			"source_id", b.SourceID,
			"site_id", b.SourceSiteID,
			"errors", errs,
		)
		return
	}

	c := Criteria{Kind: b.SourceBundleType, SourceID: b.SourceID, SiteID: b.SourceSiteID}
	rec, err := r.store.Find(ctx, c)
	if err != nil {
		r.storeError("find", err, "kind", b.SourceBundleType, "source_id", b.SourceID, "site_id", b.SourceSiteID)
		return
	}
	if rec == nil {
		rec = &Record{}
	}
	if err := b.writeTo(rec); err != nil {
		r.log.Errorw("bundle encode failed", "kind", b.SourceBundleType, "source_id", b.SourceID, "err", err)
		return
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.storeError("save", err, "kind", b.SourceBundleType, "source_id", b.SourceID, "site_id", b.SourceSiteID)
		return
	}
	r.log.Infow("bundle updated",
		"kind", b.SourceBundleType,
		"type", b.SourceType,
		"source_id", b.SourceID,
		"site_id", b.SourceSiteID,
		"version", b.BundleVersion,
	)
}
