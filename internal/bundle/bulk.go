// internal/bundle/bulk.go
//
// Bulk listing and creation.
//
// Context
// -------
// Install and the CLI walk every content source and every site in one go.
// Each source is rebuilt on top of whatever is already stored, so running
// install twice keeps customised image settings and only refreshes the
// derived attributes.
//
// Notes
// -----
//   - An empty site list builds nothing and returns 0.
package bundle

import (
	"context"
	"sort"
)

// ContentBundles returns every stored non-Global bundle in id order.  When
// allSites is false only the first record per source handle is kept.
// Content bundles listed here are not synced against built-in defaults.
func (r *Registry) ContentBundles(ctx context.Context, allSites bool) []*Bundle {
	recs, err := r.store.FindAll(ctx, Criteria{NotKind: KindGlobal})
	if err != nil {
		r.storeError("find_all", err)
		return nil
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	out := make([]*Bundle, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		if !allSites {
			if _, dup := seen[recs[i].SourceHandle]; dup {
				continue
			}
			seen[recs[i].SourceHandle] = struct{}{}
		}
		b, err := hydrate(&recs[i])
		if err != nil {
			r.log.Errorw("bundle hydrate failed", "record_id", recs[i].ID, "err", err)
			continue
		}
		out = append(out, b)
	}
	return out
}

// CreateAllContentBundles builds the bundle of every section and category
// group on every site.  It returns the number of bundles built.
func (r *Registry) CreateAllContentBundles(ctx context.Context) int {
	n := 0
	sections, err := r.content.AllSections(ctx)
	if err != nil {
		r.log.Errorw("section listing failed", "err", err)
	}
	for i := range sections {
		n += r.CreateContentBundlesForSection(ctx, &sections[i])
	}

	groups, err := r.content.AllCategoryGroups(ctx)
	if err != nil {
		r.log.Errorw("category group listing failed", "err", err)
	}
	for i := range groups {
		n += r.CreateContentBundlesForCategoryGroup(ctx, &groups[i])
	}
	// TODO(bjy): enumerate commerce product types once KindProduct has a
	// construction routine.
	return n
}

// CreateContentBundlesForSection builds s's bundle on every site.
func (r *Registry) CreateContentBundlesForSection(ctx context.Context, s *Section) int {
	return r.createForSource(ctx, sectionSource(s))
}

// CreateContentBundlesForCategoryGroup builds g's bundle on every site.
func (r *Registry) CreateContentBundlesForCategoryGroup(ctx context.Context, g *CategoryGroup) int {
	return r.createForSource(ctx, categoryGroupSource(g))
}

func (r *Registry) createForSource(ctx context.Context, src *source) int {
	n := 0
	for _, site := range r.sites(ctx) {
		base := r.persisted(ctx, Criteria{Kind: src.kind, SourceID: src.id, SiteID: site.ID})
		r.forget(src.kind, src.id, site.ID)
		if r.build(ctx, src, site.ID, base) != nil {
			n++
		}
	}
	return n
}

// CreateAllGlobalBundles builds or refreshes the Global bundle of every
// site.  Stored image settings are kept.
func (r *Registry) CreateAllGlobalBundles(ctx context.Context) int {
	n := 0
	for _, site := range r.sites(ctx) {
		base := r.persisted(ctx, Criteria{Kind: KindGlobal, SiteID: site.ID})
		r.forget(KindGlobal, 0, site.ID)
		r.buildGlobal(ctx, site.ID, base)
		n++
	}
	return n
}
