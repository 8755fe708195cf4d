package defaults

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/seobundles/internal/bundle"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoaderReadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "entrymeta.yaml", `
bundle_version: "1.0.2"
source_type: channel
settings:
  seo_image_source: fromAsset
  seo_image_ids: [4, 5]
  twitter_image_source: sameAsSeo
`)
	l := New(dir)

	d, err := l.Defaults(bundle.KindSection)
	require.NoError(t, err)
	assert.Equal(t, "1.0.2", d.BundleVersion)
	assert.Equal(t, "channel", d.SourceType)
	assert.Equal(t, bundle.ImageFromAsset, d.Settings.SEOImageSource)
	assert.Equal(t, []int64{4, 5}, d.Settings.SEOImageIDs)

	// Cached: a rewrite is invisible until Reset.
	write(t, dir, "entrymeta.yaml", "bundle_version: \"1.1.0\"\n")
	d, err = l.Defaults(bundle.KindSection)
	require.NoError(t, err)
	assert.Equal(t, "1.0.2", d.BundleVersion)

	l.Reset()
	d, err = l.Defaults(bundle.KindSection)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", d.BundleVersion)
}

func TestLoaderErrors(t *testing.T) {
	l := New(t.TempDir())

	_, err := l.Defaults(bundle.KindProduct)
	assert.True(t, errors.Is(err, bundle.ErrUnsupportedKind), "got %v", err)

	_, err = l.Defaults(bundle.Kind("entry"))
	assert.True(t, errors.Is(err, bundle.ErrUnknownKind), "got %v", err)

	_, err = l.Defaults(bundle.KindGlobal)
	assert.Error(t, err, "missing file")
}

func TestShippedDefaultsLoad(t *testing.T) {
	l := New(filepath.Join("..", "..", "conf", "bundles"))
	for _, kind := range []bundle.Kind{bundle.KindGlobal, bundle.KindSection, bundle.KindCategoryGroup} {
		d, err := l.Defaults(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.NotEmpty(t, d.BundleVersion)
	}
}
