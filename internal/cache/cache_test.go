package cache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/yanizio/seobundles/internal/bundle"
	"github.com/yanizio/seobundles/internal/metrics"
)

var (
	_ bundle.MetaCache    = (*Meta)(nil)
	_ bundle.SitemapCache = (*Sitemaps)(nil)
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should be evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestMetaInvalidation(t *testing.T) {
	m := NewMeta(10)
	m.Put("news/a", 1, Page{SourceID: 10})
	m.Put("news/a", 2, Page{SourceID: 10})
	m.Put("blog/b", 1, Page{SourceID: 20})

	before := testutil.ToFloat64(metrics.DownstreamInvalidationsTotal.WithLabelValues("meta"))
	m.InvalidateByID(10)
	_, ok := m.Get("news/a", 2)
	assert.False(t, ok)
	_, ok = m.Get("blog/b", 1)
	assert.True(t, ok)

	m.InvalidateByPath("blog/b", 1)
	_, ok = m.Get("blog/b", 1)
	assert.False(t, ok)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.DownstreamInvalidationsTotal.WithLabelValues("meta")))
}

func TestSitemapInvalidation(t *testing.T) {
	s := NewSitemaps(10)
	s.Put("news", 1, []byte("<urlset/>"))
	s.PutIndex([]byte("<sitemapindex/>"))

	s.Invalidate("news", 1)
	_, ok := s.Get("news", 1)
	assert.False(t, ok)
	_, ok = s.Index()
	assert.True(t, ok, "per-source invalidation keeps the index")

	s.InvalidateIndex()
	_, ok = s.Index()
	assert.False(t, ok)
}
