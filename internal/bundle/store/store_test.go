// internal/bundle/store/store_test.go
//
// Unit-tests for the MySQL bundle store using sqlmock.
//
// Run: go test ./internal/bundle/store -v

package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/seobundles/internal/bundle"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "sqlmock")
	t.Cleanup(func() { db.Close() })

	s := New(sqlx.NewDb(db, "mysql"))
	s.now = func() time.Time { return fixed }
	return s, mock
}

func recordRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uid", "date_created", "date_updated",
		"source_bundle_type", "source_id", "source_name", "source_handle",
		"source_type", "source_template", "source_site_id",
		"source_alt_site_settings", "source_date_updated", "bundle_version", "settings",
	})
}

func TestFindBuildsWhereInColumnOrder(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM seo_metabundles WHERE source_bundle_type = ? AND source_id = ? AND source_site_id = ? ORDER BY id ASC LIMIT 1`,
	)).
		WithArgs("section", int64(10), int64(2)).
		WillReturnRows(recordRows().AddRow(
			int64(7), "uid-7", fixed, fixed,
			"section", int64(10), "News", "news",
			"channel", "news/_entry", int64(2),
			[]byte(`{"2":{"siteId":2,"hasUrls":true}}`), fixed, "1.0.0", []byte(`{"seoImageSource":"fromAsset"}`),
		))

	rec, err := s.Find(context.Background(), bundle.Criteria{Kind: bundle.KindSection, SourceID: 10, SiteID: 2})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, "news", rec.SourceHandle)
	assert.JSONEq(t, `{"seoImageSource":"fromAsset"}`, string(rec.Settings))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindGlobalPinsSourceIDZero(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM seo_metabundles WHERE source_bundle_type = ? AND source_id = ? AND source_site_id = ? ORDER BY id ASC LIMIT 1`,
	)).
		WithArgs("__GLOBAL_BUNDLE__", int64(0), int64(3)).
		WillReturnError(sql.ErrNoRows)

	rec, err := s.Find(context.Background(), bundle.Criteria{Kind: bundle.KindGlobal, SiteID: 3})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNoRowsIsNil(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM seo_metabundles WHERE source_handle = ? ORDER BY id ASC LIMIT 1`,
	)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	rec, err := s.Find(context.Background(), bundle.Criteria{SourceHandle: "missing"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllExcludesKind(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM seo_metabundles WHERE source_bundle_type <> ? ORDER BY id ASC`,
	)).
		WithArgs("__GLOBAL_BUNDLE__").
		WillReturnRows(recordRows().
			AddRow(int64(1), "a", fixed, fixed, "section", int64(10), "News", "news", "", "", int64(1),
				[]byte(`{}`), fixed, "1.0.0", []byte(`{}`)).
			AddRow(int64(2), "b", fixed, fixed, "categorygroup", int64(30), "Topics", "topics", "category", "", int64(1),
				[]byte(`{}`), fixed, "1.0.0", []byte(`{}`)))

	recs, err := s.FindAll(context.Background(), bundle.Criteria{NotKind: bundle.KindGlobal})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "topics", recs[1].SourceHandle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveInsertsNewRecord(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO seo_metabundles`)).
		WithArgs(
			sqlmock.AnyArg(), fixed, fixed,
			"section", int64(10), "News", "news",
			"channel", "news/_entry", int64(1),
			sqlmock.AnyArg(), fixed, "1.0.0", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(42, 1))

	rec := &bundle.Record{
		SourceBundleType:      "section",
		SourceID:              10,
		SourceName:            "News",
		SourceHandle:          "news",
		SourceType:            "channel",
		SourceTemplate:        "news/_entry",
		SourceSiteID:          1,
		SourceAltSiteSettings: types.JSONText(`{}`),
		SourceDateUpdated:     fixed,
		BundleVersion:         "1.0.0",
		Settings:              types.JSONText(`{}`),
	}
	require.NoError(t, s.Save(context.Background(), rec))
	assert.Equal(t, int64(42), rec.ID)
	assert.Len(t, rec.UID, 36)
	assert.Equal(t, fixed, rec.DateCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpdatesExistingRecord(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE seo_metabundles SET`)).
		WithArgs(
			"section", int64(10), "News",
			"news", "", "",
			int64(1), sqlmock.AnyArg(),
			fixed, "1.1.0", sqlmock.AnyArg(),
			fixed, int64(5),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &bundle.Record{
		ID:                    5,
		UID:                   "uid-5",
		SourceBundleType:      "section",
		SourceID:              10,
		SourceName:            "News",
		SourceHandle:          "news",
		SourceSiteID:          1,
		SourceAltSiteSettings: types.JSONText(`{}`),
		SourceDateUpdated:     fixed,
		BundleVersion:         "1.1.0",
		Settings:              types.JSONText(`{}`),
	}
	require.NoError(t, s.Save(context.Background(), rec))
	assert.Equal(t, int64(5), rec.ID)
	assert.Equal(t, "uid-5", rec.UID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStaleRow(t *testing.T) {
	s, mock := newStore(t)
	q := regexp.QuoteMeta(`DELETE FROM seo_metabundles WHERE id = ? AND uid = ?`)

	mock.ExpectExec(q).WithArgs(int64(3), "uid-3").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(4), "uid-4").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), &bundle.Record{ID: 3, UID: "uid-3"}))

	err := s.Delete(context.Background(), &bundle.Record{ID: 4, UID: "uid-4"})
	assert.True(t, errors.Is(err, bundle.ErrStale), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
