package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/seobundles/internal/bundle"
)

// Query implements bundle.ContentQuery against the CMS element tables.
type Query struct {
	db *sqlx.DB
}

// NewQuery returns a Query on db.
func NewQuery(db *sqlx.DB) *Query { return &Query{db: db} }

type itemRow struct {
	ID          int64        `db:"id"`
	DateCreated time.Time    `db:"date_created"`
	DateUpdated sql.NullTime `db:"date_updated"`
}

// latest joins an element type table onto its owning source by handle.
const latest = `
        SELECT el.id, el.date_created, el.date_updated
          FROM %[1]s x
          JOIN %[2]s src      ON src.id = x.%[3]s
          JOIN elements el    ON el.id = x.id
          JOIN elements_sites es ON es.element_id = el.id
         WHERE src.handle = ?
           AND es.site_id = ?
           AND el.enabled = 1
           AND el.date_deleted IS NULL
         ORDER BY el.date_updated DESC
         LIMIT 1`

// MostRecentlyUpdated returns the newest enabled element under the source
// with sourceHandle on siteID, or (nil, nil) when there is none.
func (q *Query) MostRecentlyUpdated(ctx context.Context, kind bundle.Kind, sourceHandle string, siteID int64) (*bundle.ContentItem, error) {
	var stmt string
	switch kind {
	case bundle.KindSection:
		stmt = fmt.Sprintf(latest, "entries", "sections", "section_id")
	case bundle.KindCategoryGroup:
		stmt = fmt.Sprintf(latest, "categories", "categorygroups", "group_id")
	default:
		return nil, nil
	}

	var row itemRow
	err := q.db.GetContext(ctx, &row, stmt, sourceHandle, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item := &bundle.ContentItem{ID: row.ID, DateCreated: row.DateCreated}
	if row.DateUpdated.Valid {
		t := row.DateUpdated.Time
		item.DateUpdated = &t
	}
	return item, nil
}
