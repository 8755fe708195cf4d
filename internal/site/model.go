// internal/site/model.go
//
// `sites` table row model.
//
// Schema reference
//
//	CREATE TABLE sites (
//	    id           INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    handle       VARCHAR(255) NOT NULL UNIQUE,
//	    name         VARCHAR(255) NOT NULL,
//	    language     VARCHAR(12)  NOT NULL,
//	    `primary`    TINYINT(1)   NOT NULL DEFAULT 0,
//	    sort_order   SMALLINT     NOT NULL DEFAULT 0,
//	    date_deleted DATETIME     NULL
//	);
//
// Notes
// -----
//   - Soft-deleted sites (non-NULL `date_deleted`) are excluded at SQL level.
//   - `Language` is stored as entered in the CMS; Directory canonicalises it.
package site

import "time"

// Record mirrors one row in the `sites` table.
type Record struct {
	ID          int64      `db:"id"`
	Handle      string     `db:"handle"`
	Name        string     `db:"name"`
	Language    string     `db:"language"`
	Primary     bool       `db:"primary"`
	SortOrder   int        `db:"sort_order"`
	DateDeleted *time.Time `db:"date_deleted"`
}
