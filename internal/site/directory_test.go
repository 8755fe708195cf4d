// internal/site/directory_test.go
//
// Run: go test ./internal/site -v

package site

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLoadsOnceAndCanonicalises(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sites WHERE date_deleted IS NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "handle", "name", "language", "primary", "sort_order", "date_deleted"}).
			AddRow(int64(1), "default", "Default", "en_us", true, 1, nil).
			AddRow(int64(2), "german", "Deutsch", "DE-at", false, 2, nil).
			AddRow(int64(3), "broken", "Broken", "???", false, 3, nil))

	d := NewDirectory(sqlx.NewDb(db, "mysql"))
	ctx := context.Background()

	sites, err := d.AllSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 3)
	assert.True(t, sites[0].Primary)

	assert.Equal(t, "en-US", d.SiteLanguage(ctx, 1))
	assert.Equal(t, "de-AT", d.SiteLanguage(ctx, 2))
	assert.Equal(t, "en-US", d.SiteLanguage(ctx, 3), "unparsable tag falls back to primary")
	assert.Equal(t, "en-US", d.SiteLanguage(ctx, 99))

	// Second call must be served from memory; sqlmock would fail on an
	// unexpected query.
	_, err = d.AllSites(ctx)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryFallsBackToEnglish(t *testing.T) {
	d := &Directory{load: func(context.Context) ([]Record, error) { return nil, assert.AnError }}
	assert.Equal(t, "en", d.SiteLanguage(context.Background(), 1))
}
