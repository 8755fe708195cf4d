// internal/bundle/source.go
//
// Read-only views of the host CMS content model.
//
// Context
// -------
// The registry never owns sections, category groups, sites, or elements.
// It receives them from the ContentSourceLookup and ContentQuery
// collaborators as plain structs, and only reads them while deriving a
// bundle.
//
// Elements
// --------
// Entries belong to a section, categories to a category group, and
// products to a product type.  refFromElement maps a saved element to the
// (kind, source id, site) of the bundle that owns it; anything else maps
// to source id 0 and is ignored.
//
// Notes
// -----
//   - Ids are positive.  0 always means "none".
package bundle

import "time"

// Site is one site (locale) of the CMS installation.
type Site struct {
	ID       int64
	Handle   string
	Name     string
	Language string
	Primary  bool
}

// Section is an entry section with its per-site settings.
type Section struct {
	ID           int64
	Name         string
	Handle       string
	Type         string // single, channel, structure
	SiteSettings []SiteSettings
}

// CategoryGroup is a taxonomy group with its per-site settings.
type CategoryGroup struct {
	ID           int64
	Name         string
	Handle       string
	SiteSettings []SiteSettings
}

// ContentItem is the subset of an element the registry needs to stamp
// SourceDateUpdated.
type ContentItem struct {
	ID          int64
	DateCreated time.Time
	DateUpdated *time.Time
}

// source is the kind-neutral form of a Section or CategoryGroup that the
// construction routine works from.
type source struct {
	kind         Kind
	id           int64
	name         string
	handle       string
	typ          string
	siteSettings []SiteSettings
}

func sectionSource(s *Section) *source {
	return &source{
		kind:         KindSection,
		id:           s.ID,
		name:         s.Name,
		handle:       s.Handle,
		typ:          s.Type,
		siteSettings: s.SiteSettings,
	}
}

func categoryGroupSource(g *CategoryGroup) *source {
	return &source{
		kind:         KindCategoryGroup,
		id:           g.ID,
		name:         g.Name,
		handle:       g.Handle,
		siteSettings: g.SiteSettings,
	}
}

//
// Elements
//

// Element is a saved piece of content that can trigger invalidation.  The
// set of element types is closed: Entry, Category, and Product.
type Element interface {
	element()
}

// Entry is an element that belongs to a section.
type Entry struct {
	ID        int64
	SectionID int64
	SiteID    int64
	URI       string
}

// Category is an element that belongs to a category group.
type Category struct {
	ID      int64
	GroupID int64
	SiteID  int64
	URI     string
}

// Product is a commerce element.  Products do not have bundles yet.
type Product struct {
	ID     int64
	TypeID int64
	SiteID int64
	URI    string
}

func (*Entry) element()    {}
func (*Category) element() {}
func (*Product) element()  {}

// elementRef is what the registry needs to know about a saved element.
type elementRef struct {
	kind     Kind
	sourceID int64
	siteID   int64
	uri      string
}

func refFromElement(e Element) elementRef {
	switch el := e.(type) {
	case *Entry:
		return elementRef{KindSection, el.SectionID, el.SiteID, el.URI}
	case *Category:
		return elementRef{KindCategoryGroup, el.GroupID, el.SiteID, el.URI}
	case *Product:
		return elementRef{KindProduct, el.TypeID, el.SiteID, el.URI}
	}
	return elementRef{}
}

// SourceIDFromElement returns the content-source id and site id of e.  Both
// are zero when e is nil.
func SourceIDFromElement(e Element) (sourceID, siteID int64) {
	ref := refFromElement(e)
	return ref.sourceID, ref.siteID
}
