// internal/content/content_test.go
//
// Unit-tests for the CMS content adapters using sqlmock.
//
// Run: go test ./internal/content -v

package content

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/seobundles/internal/bundle"
)

type stubSites []bundle.Site

func (s stubSites) AllSites(context.Context) ([]bundle.Site, error) { return s, nil }

func newDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

var siteCols = []string{"owner_id", "site_id", "has_urls", "uri_format", "template"}

func TestSectionByHandle(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sections WHERE date_deleted IS NULL AND handle = ? LIMIT 1`)).
		WithArgs("news").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "handle", "type"}).
			AddRow(int64(10), "News", "news", "channel"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sections_sites WHERE section_id = ? ORDER BY site_id ASC`)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(int64(10), int64(1), true, "news/{slug}", "news/_entry").
			AddRow(int64(10), int64(2), false, nil, nil))

	got, err := NewLookup(db, stubSites{}).SectionByHandle(context.Background(), "news")
	require.NoError(t, err)

	want := &bundle.Section{
		ID: 10, Name: "News", Handle: "news", Type: "channel",
		SiteSettings: []bundle.SiteSettings{
			{SiteID: 1, HasURLs: true, URIFormat: "news/{slug}", Template: "news/_entry"},
			{SiteID: 2},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("section mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryGroupByIDMissing(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, handle, '' AS type FROM categorygroups WHERE date_deleted IS NULL AND id = ?`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "handle", "type"}))

	got, err := NewLookup(db, stubSites{}).CategoryGroupByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllCategoryGroupsGroupsSiteRows(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categorygroups WHERE date_deleted IS NULL ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "handle", "type"}).
			AddRow(int64(30), "Topics", "topics", "").
			AddRow(int64(31), "Tags", "tags", ""))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM categorygroups_sites ORDER BY group_id ASC, site_id ASC`)).
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(int64(30), int64(1), true, "topics/{slug}", "topics/_category").
			AddRow(int64(31), int64(1), true, "tags/{slug}", "tags/_category").
			AddRow(int64(31), int64(2), true, "tags/{slug}", "tags/_category"))

	groups, err := NewLookup(db, stubSites{}).AllCategoryGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].SiteSettings, 1)
	assert.Len(t, groups[1].SiteSettings, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllSitesDelegates(t *testing.T) {
	db, _ := newDB(t)
	sites := stubSites{{ID: 1, Handle: "default"}}

	got, err := NewLookup(db, sites).AllSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bundle.Site(sites), got)
}

func TestMostRecentlyUpdated(t *testing.T) {
	db, mock := newDB(t)
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM entries x JOIN sections src ON src.id = x.section_id`)).
		WithArgs("news", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_created", "date_updated"}).
			AddRow(int64(500), created, updated))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories x JOIN categorygroups src ON src.id = x.group_id`)).
		WithArgs("topics", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_created", "date_updated"}).
			AddRow(int64(600), created, nil))

	q := NewQuery(db)
	ctx := context.Background()

	item, err := q.MostRecentlyUpdated(ctx, bundle.KindSection, "news", 1)
	require.NoError(t, err)
	require.NotNil(t, item.DateUpdated)
	assert.Equal(t, updated, *item.DateUpdated)

	item, err = q.MostRecentlyUpdated(ctx, bundle.KindCategoryGroup, "topics", 1)
	require.NoError(t, err)
	assert.Nil(t, item.DateUpdated)
	assert.Equal(t, created, item.DateCreated)

	item, err = q.MostRecentlyUpdated(ctx, bundle.KindProduct, "shoes", 1)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.NoError(t, mock.ExpectationsWereMet())
}
