// internal/site/directory.go
//
// Cached site directory and language resolver.
//
// Context
// -------
// Every bulk and invalidation path in the bundle registry walks the full
// site list, often several times per request.  Directory loads the list
// once and keeps it until Reset, which the webhook calls when a site is
// added or removed in the CMS.
//
// Language tags are canonicalised with golang.org/x/text/language so that
// `en_us`, `en-US`, and `EN-us` all render as `en-US` in alt-site
// settings.  Unknown or unparsable tags fall back to the primary site's
// language, then to `en`.
package site

import (
	"context"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/language"

	"github.com/yanizio/seobundles/internal/bundle"
)

const fallbackLanguage = "en"

// Directory serves bundle.Site values and site languages from `sites`.
type Directory struct {
	load func(ctx context.Context) ([]Record, error)

	mu    sync.Mutex
	sites []bundle.Site
}

// NewDirectory returns a Directory reading from db.
func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{load: func(ctx context.Context) ([]Record, error) {
		return AllActive(ctx, db)
	}}
}

// AllSites returns every active site.  The first successful load is
// cached.
func (d *Directory) AllSites(ctx context.Context) ([]bundle.Site, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sites != nil {
		return d.sites, nil
	}

	rows, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	sites := make([]bundle.Site, 0, len(rows))
	for _, r := range rows {
		sites = append(sites, bundle.Site{
			ID:       r.ID,
			Handle:   r.Handle,
			Name:     r.Name,
			Language: canonical(r.Language),
			Primary:  r.Primary,
		})
	}
	d.sites = sites
	return sites, nil
}

// SiteLanguage returns the canonical language tag of siteID.
func (d *Directory) SiteLanguage(ctx context.Context, siteID int64) string {
	sites, err := d.AllSites(ctx)
	if err != nil {
		return fallbackLanguage
	}
	primary := ""
	for _, s := range sites {
		if s.ID == siteID && s.Language != "" {
			return s.Language
		}
		if s.Primary {
			primary = s.Language
		}
	}
	if primary != "" {
		return primary
	}
	return fallbackLanguage
}

// Reset drops the cached site list.
func (d *Directory) Reset() {
	d.mu.Lock()
	d.sites = nil
	d.mu.Unlock()
}

// canonical returns the BCP 47 form of raw, or "" when raw is unparsable.
func canonical(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	return tag.String()
}
