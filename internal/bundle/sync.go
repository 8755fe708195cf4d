// internal/bundle/sync.go
//
// Defaults version sync.
//
// Context
// -------
// Built-in defaults ship with a bundle_version.  A stored bundle whose
// version is older is rebuilt on load so new default fields reach it, while
// the image settings it already carries stay on top.
package bundle

import (
	"context"

	"github.com/yanizio/seobundles/internal/metrics"
)

// syncWithDefaults returns b unchanged when its version is current, or a
// rebuilt bundle when the built-in defaults for its kind carry a strictly
// greater version.  The rebuild keeps b's settings on top of the new
// defaults and stamps the new version.  b itself is never modified.
func (r *Registry) syncWithDefaults(ctx context.Context, b *Bundle) *Bundle {
	d, err := r.defaults.Defaults(b.SourceBundleType)
	if err != nil {
		r.log.Errorw("built-in defaults unavailable", "kind", b.SourceBundleType, "err", err)
		return b
	}
	if !versionNewer(d.BundleVersion, b.BundleVersion) {
		return b
	}

	r.log.Infow("bundle behind built-in defaults",
		"kind", b.SourceBundleType,
		"source_id", b.SourceID,
		"site_id", b.SourceSiteID,
		"stored", b.BundleVersion,
		"builtin", d.BundleVersion,
	)

	var synced *Bundle
	if b.SourceBundleType == KindGlobal {
		synced = r.buildGlobal(ctx, b.SourceSiteID, b)
	} else if src := r.sourceByID(ctx, b.SourceBundleType, b.SourceID); src != nil {
		synced = r.build(ctx, src, b.SourceSiteID, b)
	}
	if synced == nil {
		return b
	}
	metrics.BundleSyncTotal.WithLabelValues(string(b.SourceBundleType)).Inc()
	return synced
}
