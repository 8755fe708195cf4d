// internal/bundle/store/store.go
//
// MySQL-backed bundle.Store.
//
// Context
// -------
// Bundles live in one table, `seo_metabundles` (schema in
// internal/bundle/record.go).  The registry addresses rows by a Criteria
// value rather than by primary key, so Find and FindAll assemble their
// WHERE clause from whichever Criteria fields are set.  Column order in
// the WHERE clause is fixed so the statement text is stable for the query
// cache and for tests.  A Global Criteria always filters on source_id = 0;
// every other kind filters on source_id only when one is given.
//
// Rows are written with a random UUID in `uid`.  Delete matches on both id
// and uid; a zero row count means someone else already removed or
// re-created the row, which surfaces as bundle.ErrStale.
//
// Notes
// -----
//   - The DSN must carry `parseTime=true` so DATETIME columns scan into
//     time.Time.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/seobundles/internal/bundle"
)

const columns = `id, uid, date_created, date_updated,
       source_bundle_type, source_id, source_name, source_handle,
       source_type, source_template, source_site_id,
       source_alt_site_settings, source_date_updated, bundle_version, settings`

// Store implements bundle.Store on a sqlx pool.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a Store that stamps rows with the wall clock.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// where renders c as a WHERE clause plus its arguments.
func where(c bundle.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if c.Kind != "" {
		conds = append(conds, "source_bundle_type = ?")
		args = append(args, string(c.Kind))
	}
	if c.NotKind != "" {
		conds = append(conds, "source_bundle_type <> ?")
		args = append(args, string(c.NotKind))
	}
	if c.SourceID != 0 || c.Kind == bundle.KindGlobal {
		conds = append(conds, "source_id = ?")
		args = append(args, c.SourceID)
	}
	if c.SourceHandle != "" {
		conds = append(conds, "source_handle = ?")
		args = append(args, c.SourceHandle)
	}
	if c.SiteID != 0 {
		conds = append(conds, "source_site_id = ?")
		args = append(args, c.SiteID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns the lowest-id row matching c, or (nil, nil).
func (s *Store) Find(ctx context.Context, c bundle.Criteria) (*bundle.Record, error) {
	w, args := where(c)
	q := `SELECT ` + columns + ` FROM seo_metabundles` + w + ` ORDER BY id ASC LIMIT 1`

	var rec bundle.Record
	err := s.db.GetContext(ctx, &rec, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindAll returns every row matching c in id order.
func (s *Store) FindAll(ctx context.Context, c bundle.Criteria) ([]bundle.Record, error) {
	w, args := where(c)
	q := `SELECT ` + columns + ` FROM seo_metabundles` + w + ` ORDER BY id ASC`

	var recs []bundle.Record
	if err := s.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, err
	}
	return recs, nil
}

// Save inserts rec when its ID is zero and updates it otherwise.  On
// insert, ID, UID, and DateCreated are filled in.
func (s *Store) Save(ctx context.Context, rec *bundle.Record) error {
	now := s.now().UTC()
	if rec.ID == 0 {
		return s.insert(ctx, rec, now)
	}

	const q = `
        UPDATE seo_metabundles
           SET source_bundle_type = ?, source_id = ?, source_name = ?,
               source_handle = ?, source_type = ?, source_template = ?,
               source_site_id = ?, source_alt_site_settings = ?,
               source_date_updated = ?, bundle_version = ?, settings = ?,
               date_updated = ?
         WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q,
		rec.SourceBundleType, rec.SourceID, rec.SourceName,
		rec.SourceHandle, rec.SourceType, rec.SourceTemplate,
		rec.SourceSiteID, rec.SourceAltSiteSettings,
		rec.SourceDateUpdated, rec.BundleVersion, rec.Settings,
		now, rec.ID,
	); err != nil {
		return err
	}
	rec.DateUpdated = now
	return nil
}

func (s *Store) insert(ctx context.Context, rec *bundle.Record, now time.Time) error {
	const q = `
        INSERT INTO seo_metabundles
               (uid, date_created, date_updated,
                source_bundle_type, source_id, source_name, source_handle,
                source_type, source_template, source_site_id,
                source_alt_site_settings, source_date_updated, bundle_version, settings)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	uid := uuid.NewString()
	res, err := s.db.ExecContext(ctx, q,
		uid, now, now,
		rec.SourceBundleType, rec.SourceID, rec.SourceName, rec.SourceHandle,
		rec.SourceType, rec.SourceTemplate, rec.SourceSiteID,
		rec.SourceAltSiteSettings, rec.SourceDateUpdated, rec.BundleVersion, rec.Settings,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID, rec.UID = id, uid
	rec.DateCreated, rec.DateUpdated = now, now
	return nil
}

// Delete removes rec.  bundle.ErrStale is returned when no row matched
// both id and uid.
func (s *Store) Delete(ctx context.Context, rec *bundle.Record) error {
	const q = `DELETE FROM seo_metabundles WHERE id = ? AND uid = ?`

	res, err := s.db.ExecContext(ctx, q, rec.ID, rec.UID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return bundle.ErrStale
	}
	return nil
}
