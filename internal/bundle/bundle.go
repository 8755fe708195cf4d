// internal/bundle/bundle.go
//
// Bundle data model.
//
// Context
// -------
// A Bundle is the site-scoped set of SEO defaults attached to one content
// source.  One logical source yields one Bundle per site where the source
// renders URLs.  The nested Settings block carries the image-selection
// policy for the SEO, Twitter, and Open Graph images.
//
// Struct tags
// -----------
//   - `json`     – shape of the JSON columns in `seo_metabundles`.
//   - `koanf`    – shape of the built-in defaults files under conf/bundles.
//   - `validate` – go-playground/validator rules checked before any save.
//
// Notes
// -----
//   - Bundles are values once returned; callers that need to change one
//     build a new Bundle through the Registry.
//   - Oxford commas, two spaces after periods.
package bundle

import "time"

// Image source policies understood by the meta renderer.
const (
	ImageFromAsset = "fromAsset"
	ImageFromURL   = "fromUrl"
	ImageFromField = "fromField"
	ImageSameAsSEO = "sameAsSeo"
)

// Settings is the image-selection policy of a bundle.
type Settings struct {
	SEOImageIDs    []int64 `json:"seoImageIds"    koanf:"seo_image_ids"    validate:"dive,gt=0"`
	SEOImageSource string  `json:"seoImageSource" koanf:"seo_image_source" validate:"omitempty,oneof=fromAsset fromUrl fromField"`
	SEOImageField  string  `json:"seoImageField"  koanf:"seo_image_field"  validate:"required_if=SEOImageSource fromField"`

	TwitterImageIDs    []int64 `json:"twitterImageIds"    koanf:"twitter_image_ids"    validate:"dive,gt=0"`
	TwitterImageSource string  `json:"twitterImageSource" koanf:"twitter_image_source" validate:"omitempty,oneof=fromAsset fromUrl fromField sameAsSeo"`
	TwitterImageField  string  `json:"twitterImageField"  koanf:"twitter_image_field"  validate:"required_if=TwitterImageSource fromField"`

	OGImageIDs    []int64 `json:"ogImageIds"    koanf:"og_image_ids"    validate:"dive,gt=0"`
	OGImageSource string  `json:"ogImageSource" koanf:"og_image_source" validate:"omitempty,oneof=fromAsset fromUrl fromField sameAsSeo"`
	OGImageField  string  `json:"ogImageField"  koanf:"og_image_field"  validate:"required_if=OGImageSource fromField"`
}

// overlay returns s with every non-zero field of o written on top.  A zero
// field in o means unset, so a cleared field keeps s's value.
func (s Settings) overlay(o Settings) Settings {
	if len(o.SEOImageIDs) > 0 {
		s.SEOImageIDs = append([]int64(nil), o.SEOImageIDs...)
	}
	if o.SEOImageSource != "" {
		s.SEOImageSource = o.SEOImageSource
	}
	if o.SEOImageField != "" {
		s.SEOImageField = o.SEOImageField
	}
	if len(o.TwitterImageIDs) > 0 {
		s.TwitterImageIDs = append([]int64(nil), o.TwitterImageIDs...)
	}
	if o.TwitterImageSource != "" {
		s.TwitterImageSource = o.TwitterImageSource
	}
	if o.TwitterImageField != "" {
		s.TwitterImageField = o.TwitterImageField
	}
	if len(o.OGImageIDs) > 0 {
		s.OGImageIDs = append([]int64(nil), o.OGImageIDs...)
	}
	if o.OGImageSource != "" {
		s.OGImageSource = o.OGImageSource
	}
	if o.OGImageField != "" {
		s.OGImageField = o.OGImageField
	}
	return s
}

// SiteSettings is the per-site snapshot of a content source, used for
// cross-site link generation.
type SiteSettings struct {
	SiteID    int64  `json:"siteId"`
	HasURLs   bool   `json:"hasUrls"`
	URIFormat string `json:"uriFormat"`
	Template  string `json:"template"`
	Language  string `json:"language"`
}

// Bundle is one site-scoped set of SEO defaults for a content source.
type Bundle struct {
	SourceBundleType      Kind                   `json:"sourceBundleType"      validate:"required,oneof=__GLOBAL_BUNDLE__ section categorygroup product"`
	SourceID              int64                  `json:"sourceId"              validate:"required_unless=SourceBundleType __GLOBAL_BUNDLE__,gte=0"`
	SourceName            string                 `json:"sourceName"            validate:"required,max=255"`
	SourceHandle          string                 `json:"sourceHandle"          validate:"required,max=255"`
	SourceType            string                 `json:"sourceType"            validate:"max=64"`
	SourceTemplate        string                 `json:"sourceTemplate"        validate:"max=500"`
	SourceSiteID          int64                  `json:"sourceSiteId"          validate:"gt=0"`
	SourceAltSiteSettings map[int64]SiteSettings `json:"sourceAltSiteSettings"`
	SourceDateUpdated     time.Time              `json:"sourceDateUpdated"`
	BundleVersion         string                 `json:"bundleVersion"         validate:"required,semver"`
	Settings              Settings               `json:"settings"`
}

// Defaults is one built-in defaults file: the version stamp plus every
// field a freshly built bundle of that kind starts from.
type Defaults struct {
	BundleVersion  string   `koanf:"bundle_version"`
	SourceName     string   `koanf:"source_name"`
	SourceHandle   string   `koanf:"source_handle"`
	SourceType     string   `koanf:"source_type"`
	SourceTemplate string   `koanf:"source_template"`
	Settings       Settings `koanf:"settings"`
}

// apply seeds b with the defaults; it is the lowest-precedence layer.
func (d Defaults) apply(b *Bundle) {
	b.BundleVersion = d.BundleVersion
	b.SourceName = d.SourceName
	b.SourceHandle = d.SourceHandle
	b.SourceType = d.SourceType
	b.SourceTemplate = d.SourceTemplate
	b.Settings = Settings{}.overlay(d.Settings)
}
