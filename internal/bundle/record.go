// internal/bundle/record.go
//
// `seo_metabundles` row model and hydration.
//
// Schema reference
//
//	CREATE TABLE seo_metabundles (
//	    id                       INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    uid                      CHAR(36)      NOT NULL,
//	    source_bundle_type       VARCHAR(64)   NOT NULL,
//	    source_id                INT UNSIGNED  NOT NULL DEFAULT 0,
//	    source_name              VARCHAR(255)  NOT NULL,
//	    source_handle            VARCHAR(255)  NOT NULL,
//	    source_type              VARCHAR(64)   NOT NULL DEFAULT '',
//	    source_template          VARCHAR(500)  NOT NULL DEFAULT '',
//	    source_site_id           INT UNSIGNED  NOT NULL,
//	    source_alt_site_settings JSON          NOT NULL,
//	    source_date_updated      DATETIME      NOT NULL,
//	    bundle_version           VARCHAR(32)   NOT NULL,
//	    settings                 JSON          NOT NULL,
//	    date_created             DATETIME      NOT NULL,
//	    date_updated             DATETIME      NOT NULL,
//	    UNIQUE KEY ux_source (source_bundle_type, source_id, source_site_id)
//	);
//
// Notes
// -----
//   - `id`, `uid`, `date_created`, and `date_updated` are storage
//     bookkeeping; hydration ignores them.
//   - Zero-valued Criteria fields do not filter, except that a Global
//     Kind always pins source_id to 0.  Callers reject zero ids before
//     building a Criteria.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ErrStale is returned by a Store when a record was modified or removed
// since it was read.
var ErrStale = errors.New("bundle: stale record")

// Record mirrors one row in `seo_metabundles`.
type Record struct {
	ID          int64     `db:"id"`
	UID         string    `db:"uid"`
	DateCreated time.Time `db:"date_created"`
	DateUpdated time.Time `db:"date_updated"`

	SourceBundleType      string         `db:"source_bundle_type"`
	SourceID              int64          `db:"source_id"`
	SourceName            string         `db:"source_name"`
	SourceHandle          string         `db:"source_handle"`
	SourceType            string         `db:"source_type"`
	SourceTemplate        string         `db:"source_template"`
	SourceSiteID          int64          `db:"source_site_id"`
	SourceAltSiteSettings types.JSONText `db:"source_alt_site_settings"`
	SourceDateUpdated     time.Time      `db:"source_date_updated"`
	BundleVersion         string         `db:"bundle_version"`
	Settings              types.JSONText `db:"settings"`
}

// Criteria selects records.  Empty fields match everything; Kind set to
// KindGlobal also requires source id 0.
type Criteria struct {
	Kind         Kind
	NotKind      Kind
	SourceID     int64
	SourceHandle string
	SiteID       int64
}

// hydrate turns a stored row into a Bundle.
func hydrate(rec *Record) (*Bundle, error) {
	kind, err := ParseKind(rec.SourceBundleType)
	if err != nil {
		return nil, err
	}
	b := &Bundle{
		SourceBundleType:  kind,
		SourceID:          rec.SourceID,
		SourceName:        rec.SourceName,
		SourceHandle:      rec.SourceHandle,
		SourceType:        rec.SourceType,
		SourceTemplate:    rec.SourceTemplate,
		SourceSiteID:      rec.SourceSiteID,
		SourceDateUpdated: rec.SourceDateUpdated,
		BundleVersion:     rec.BundleVersion,
	}
	if len(rec.SourceAltSiteSettings) > 0 {
		if err := rec.SourceAltSiteSettings.Unmarshal(&b.SourceAltSiteSettings); err != nil {
			return nil, fmt.Errorf("record %d alt site settings: %w", rec.ID, err)
		}
	}
	if len(rec.Settings) > 0 {
		if err := rec.Settings.Unmarshal(&b.Settings); err != nil {
			return nil, fmt.Errorf("record %d settings: %w", rec.ID, err)
		}
	}
	return b, nil
}

// writeTo copies every bundle field onto rec, leaving bookkeeping alone.
func (b *Bundle) writeTo(rec *Record) error {
	alt := b.SourceAltSiteSettings
	if alt == nil {
		alt = map[int64]SiteSettings{}
	}
	altJSON, err := json.Marshal(alt)
	if err != nil {
		return err
	}
	settingsJSON, err := json.Marshal(b.Settings)
	if err != nil {
		return err
	}

	rec.SourceBundleType = string(b.SourceBundleType)
	rec.SourceID = b.SourceID
	rec.SourceName = b.SourceName
	rec.SourceHandle = b.SourceHandle
	rec.SourceType = b.SourceType
	rec.SourceTemplate = b.SourceTemplate
	rec.SourceSiteID = b.SourceSiteID
	rec.SourceAltSiteSettings = types.JSONText(altJSON)
	rec.SourceDateUpdated = b.SourceDateUpdated
	rec.BundleVersion = b.BundleVersion
	rec.Settings = types.JSONText(settingsJSON)
	return nil
}
