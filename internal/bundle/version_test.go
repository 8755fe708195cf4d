package bundle

import (
	"errors"
	"testing"
	"time"
)

func TestVersionNewer(t *testing.T) {
	cases := []struct {
		builtin, persisted string
		want               bool
	}{
		{"1.1.0", "1.0.0", true},
		{"1.0.10", "1.0.9", true}, // numeric, not lexical
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "1.1.0", false},
		{"1.0.0", "", true},
		{"v2.0.0", "1.9.9", true},
		{"", "1.0.0", false},
	}
	for _, c := range cases {
		if got := versionNewer(c.builtin, c.persisted); got != c.want {
			t.Errorf("versionNewer(%q, %q) = %v, want %v", c.builtin, c.persisted, got, c.want)
		}
	}
}

func TestSettingsOverlay(t *testing.T) {
	base := Settings{SEOImageSource: ImageFromAsset, TwitterImageSource: ImageSameAsSEO, OGImageField: "og"}
	got := base.overlay(Settings{SEOImageSource: ImageFromField, SEOImageField: "hero", SEOImageIDs: []int64{3}})

	if got.SEOImageSource != ImageFromField || got.SEOImageField != "hero" {
		t.Fatalf("override lost: %+v", got)
	}
	if got.TwitterImageSource != ImageSameAsSEO || got.OGImageField != "og" {
		t.Fatalf("zero override clobbered base: %+v", got)
	}
	if len(got.SEOImageIDs) != 1 || got.SEOImageIDs[0] != 3 {
		t.Fatalf("ids not copied: %+v", got.SEOImageIDs)
	}
}

func TestSettingsOverlay_ClearedFieldFallsBack(t *testing.T) {
	defaults := Settings{SEOImageSource: ImageFromAsset, SEOImageIDs: []int64{1}}
	cleared := Settings{SEOImageSource: "", SEOImageIDs: []int64{}}

	got := Settings{}.overlay(defaults).overlay(cleared)
	if got.SEOImageSource != ImageFromAsset || len(got.SEOImageIDs) != 1 {
		t.Fatalf("cleared field should fall back to default, got %+v", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"global":            KindGlobal,
		"__GLOBAL_BUNDLE__": KindGlobal,
		"section":           KindSection,
		"categorygroup":     KindCategoryGroup,
		"product":           KindProduct,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("entry"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(entry) err = %v, want ErrUnknownKind", err)
	}
}

func TestValidateBundle(t *testing.T) {
	ok := &Bundle{
		SourceBundleType:  KindSection,
		SourceID:          1,
		SourceName:        "News",
		SourceHandle:      "news",
		SourceSiteID:      1,
		SourceDateUpdated: time.Now(),
		BundleVersion:     "1.0.0",
		Settings:          Settings{SEOImageSource: ImageFromAsset},
	}
	if errs := validateBundle(ok); errs != nil {
		t.Fatalf("valid bundle rejected: %v", errs)
	}

	bad := *ok
	bad.SourceID = 0
	bad.BundleVersion = "latest"
	bad.Settings = Settings{SEOImageSource: ImageFromField}
	errs := validateBundle(&bad)
	for _, field := range []string{
		"Bundle.SourceID",
		"Bundle.BundleVersion",
		"Bundle.Settings.SEOImageField",
	} {
		if _, found := errs[field]; !found {
			t.Errorf("expected error on %s, got %v", field, errs)
		}
	}

	global := *ok
	global.SourceBundleType = KindGlobal
	global.SourceID = 0
	if errs := validateBundle(&global); errs != nil {
		t.Fatalf("global bundle without source id rejected: %v", errs)
	}
}
