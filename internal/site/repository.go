package site

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// AllActive returns every site that is not soft-deleted, primary site
// first, then in sort order.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT id, handle, name, language, ` + "`primary`" + `, sort_order, date_deleted
        FROM   sites
        WHERE  date_deleted IS NULL
        ORDER  BY ` + "`primary`" + ` DESC, sort_order ASC, id ASC`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
