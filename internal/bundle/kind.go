// internal/bundle/kind.go
//
// Bundle kinds.
//
// Context
// -------
// Every bundle is discriminated by the kind of content source it was built
// from.  The set is closed: Global, Section, CategoryGroup, and Product.
// Product is reserved for commerce catalogs and is recognised but not yet
// buildable, so it resolves to ErrUnsupportedKind rather than a silent
// no-op.  Any other value is ErrUnknownKind.
//
// The string values match the `source_bundle_type` column so existing rows
// keep working.
package bundle

import (
	"errors"
	"fmt"
)

// Kind identifies the content source a bundle was derived from.
type Kind string

const (
	KindGlobal        Kind = "__GLOBAL_BUNDLE__"
	KindSection       Kind = "section"
	KindCategoryGroup Kind = "categorygroup"
	KindProduct       Kind = "product"
)

var (
	// ErrUnknownKind is returned when a kind is outside the closed set.
	ErrUnknownKind = errors.New("bundle: unknown source bundle type")

	// ErrUnsupportedKind is returned for kinds that are recognised but have
	// no construction routine yet.
	ErrUnsupportedKind = errors.New("bundle: source bundle type not supported")
)

// ParseKind maps a wire or column value onto a Kind.  The short alias
// "global" is accepted for the Global kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGlobal, "global":
		return KindGlobal, nil
	case KindSection, KindCategoryGroup, KindProduct:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// check reports whether k can be resolved by this package.
func (k Kind) check() error {
	switch k {
	case KindGlobal, KindSection, KindCategoryGroup:
		return nil
	case KindProduct:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

func (k Kind) String() string { return string(k) }
