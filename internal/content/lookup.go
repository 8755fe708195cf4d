// internal/content/lookup.go
//
// SQL implementation of bundle.ContentSourceLookup.
//
// Context
// -------
// The CMS stores each content source in two tables: the source itself
// and one row per site describing whether it renders URLs there, its URI
// format, and its template.
//
//	sections              (id, name, handle, type, date_deleted)
//	sections_sites        (section_id, site_id, has_urls, uri_format, template)
//	categorygroups        (id, name, handle, date_deleted)
//	categorygroups_sites  (group_id, site_id, has_urls, uri_format, template)
//
// Single lookups run two queries: the source row, then its site rows.
// The list helpers run two queries in total and group site rows in
// memory, so a bulk install never issues one query per source.
//
// Site enumeration is delegated to a SiteLister, normally
// *site.Directory, so the site list is cached in one place.
//
// Absence
// -------
// A missing or soft-deleted source yields (nil, nil), matching the
// bundle package's convention.
package content

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/seobundles/internal/bundle"
)

// SiteLister enumerates sites.
type SiteLister interface {
	AllSites(ctx context.Context) ([]bundle.Site, error)
}

// Lookup reads sections and category groups from the CMS schema.
type Lookup struct {
	db    *sqlx.DB
	sites SiteLister
}

// NewLookup returns a Lookup on db that enumerates sites through sites.
func NewLookup(db *sqlx.DB, sites SiteLister) *Lookup {
	return &Lookup{db: db, sites: sites}
}

type sourceRow struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Handle string `db:"handle"`
	Type   string `db:"type"`
}

type siteRow struct {
	OwnerID   int64          `db:"owner_id"`
	SiteID    int64          `db:"site_id"`
	HasURLs   bool           `db:"has_urls"`
	URIFormat sql.NullString `db:"uri_format"`
	Template  sql.NullString `db:"template"`
}

func (r siteRow) settings() bundle.SiteSettings {
	return bundle.SiteSettings{
		SiteID:    r.SiteID,
		HasURLs:   r.HasURLs,
		URIFormat: r.URIFormat.String,
		Template:  r.Template.String,
	}
}

// table describes one source/sites table pair.
type table struct {
	source   string
	sites    string
	owner    string
	typeExpr string
}

var (
	sectionTables = table{
		source:   "sections",
		sites:    "sections_sites",
		owner:    "section_id",
		typeExpr: "type",
	}
	groupTables = table{
		source:   "categorygroups",
		sites:    "categorygroups_sites",
		owner:    "group_id",
		typeExpr: "''",
	}
)

func (t table) selectSource() string {
	return `SELECT id, name, handle, ` + t.typeExpr + ` AS type
              FROM ` + t.source + `
             WHERE date_deleted IS NULL`
}

func (t table) selectSites() string {
	return `SELECT ` + t.owner + ` AS owner_id, site_id, has_urls, uri_format, template
              FROM ` + t.sites
}

// one loads a single source row matching col = arg plus its site rows.
func (l *Lookup) one(ctx context.Context, t table, col string, arg any) (*sourceRow, []bundle.SiteSettings, error) {
	var src sourceRow
	err := l.db.GetContext(ctx, &src, t.selectSource()+` AND `+col+` = ? LIMIT 1`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var rows []siteRow
	q := t.selectSites() + ` WHERE ` + t.owner + ` = ? ORDER BY site_id ASC`
	if err := l.db.SelectContext(ctx, &rows, q, src.ID); err != nil {
		return nil, nil, err
	}
	settings := make([]bundle.SiteSettings, 0, len(rows))
	for _, r := range rows {
		settings = append(settings, r.settings())
	}
	return &src, settings, nil
}

// all loads every source row of t, each with its site rows.
func (l *Lookup) all(ctx context.Context, t table) ([]sourceRow, map[int64][]bundle.SiteSettings, error) {
	var srcs []sourceRow
	if err := l.db.SelectContext(ctx, &srcs, t.selectSource()+` ORDER BY id ASC`); err != nil {
		return nil, nil, err
	}
	var rows []siteRow
	if err := l.db.SelectContext(ctx, &rows, t.selectSites()+` ORDER BY `+t.owner+` ASC, site_id ASC`); err != nil {
		return nil, nil, err
	}
	byOwner := make(map[int64][]bundle.SiteSettings, len(srcs))
	for _, r := range rows {
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r.settings())
	}
	return srcs, byOwner, nil
}

func toSection(r *sourceRow, ss []bundle.SiteSettings) *bundle.Section {
	return &bundle.Section{ID: r.ID, Name: r.Name, Handle: r.Handle, Type: r.Type, SiteSettings: ss}
}

func toGroup(r *sourceRow, ss []bundle.SiteSettings) *bundle.CategoryGroup {
	return &bundle.CategoryGroup{ID: r.ID, Name: r.Name, Handle: r.Handle, SiteSettings: ss}
}

func (l *Lookup) SectionByID(ctx context.Context, id int64) (*bundle.Section, error) {
	r, ss, err := l.one(ctx, sectionTables, "id", id)
	if r == nil || err != nil {
		return nil, err
	}
	return toSection(r, ss), nil
}

func (l *Lookup) SectionByHandle(ctx context.Context, handle string) (*bundle.Section, error) {
	r, ss, err := l.one(ctx, sectionTables, "handle", handle)
	if r == nil || err != nil {
		return nil, err
	}
	return toSection(r, ss), nil
}

func (l *Lookup) CategoryGroupByID(ctx context.Context, id int64) (*bundle.CategoryGroup, error) {
	r, ss, err := l.one(ctx, groupTables, "id", id)
	if r == nil || err != nil {
		return nil, err
	}
	return toGroup(r, ss), nil
}

func (l *Lookup) CategoryGroupByHandle(ctx context.Context, handle string) (*bundle.CategoryGroup, error) {
	r, ss, err := l.one(ctx, groupTables, "handle", handle)
	if r == nil || err != nil {
		return nil, err
	}
	return toGroup(r, ss), nil
}

// AllSections returns every live section in id order.
func (l *Lookup) AllSections(ctx context.Context) ([]bundle.Section, error) {
	srcs, byOwner, err := l.all(ctx, sectionTables)
	if err != nil {
		return nil, err
	}
	out := make([]bundle.Section, 0, len(srcs))
	for i := range srcs {
		out = append(out, *toSection(&srcs[i], byOwner[srcs[i].ID]))
	}
	return out, nil
}

// AllCategoryGroups returns every live category group in id order.
func (l *Lookup) AllCategoryGroups(ctx context.Context) ([]bundle.CategoryGroup, error) {
	srcs, byOwner, err := l.all(ctx, groupTables)
	if err != nil {
		return nil, err
	}
	out := make([]bundle.CategoryGroup, 0, len(srcs))
	for i := range srcs {
		out = append(out, *toGroup(&srcs[i], byOwner[srcs[i].ID]))
	}
	return out, nil
}

func (l *Lookup) AllSites(ctx context.Context) ([]bundle.Site, error) {
	return l.sites.AllSites(ctx)
}
