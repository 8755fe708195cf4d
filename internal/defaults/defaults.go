// internal/defaults/defaults.go
//
// Built-in bundle defaults loader.
//
// Context
// -------
// Each buildable bundle kind ships one YAML file under `conf/bundles`:
//
//	globalmeta.yaml    Global
//	entrymeta.yaml     Section
//	categorymeta.yaml  CategoryGroup
//
// A file carries `bundle_version` plus the starting values of every
// bundle field.  Raising `bundle_version` is how a release tells the
// registry that stored bundles should pick up newly added fields.
//
// Files are read through Koanf (file provider, YAML parser), the same
// stack as internal/config, and unmarshalled into bundle.Defaults.  Each
// kind is read at most once per Loader; Reset forces a re-read, which
// the `serve` command wires to SIGHUP.
//
// Notes
// -----
//   - Product has no defaults file and resolves to bundle.ErrUnsupportedKind.
//   - Oxford commas, two spaces after periods.
package defaults

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/seobundles/internal/bundle"
)

var files = map[bundle.Kind]string{
	bundle.KindGlobal:        "globalmeta.yaml",
	bundle.KindSection:       "entrymeta.yaml",
	bundle.KindCategoryGroup: "categorymeta.yaml",
}

// Loader implements bundle.DefaultsLoader over a directory of YAML files.
type Loader struct {
	dir string

	mu     sync.Mutex
	byKind map[bundle.Kind]bundle.Defaults
}

// New returns a Loader reading from dir.
func New(dir string) *Loader {
	return &Loader{dir: dir, byKind: make(map[bundle.Kind]bundle.Defaults)}
}

// Defaults returns the built-in defaults of kind.
func (l *Loader) Defaults(kind bundle.Kind) (bundle.Defaults, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d, ok := l.byKind[kind]; ok {
		return d, nil
	}

	name, ok := files[kind]
	if !ok {
		if kind == bundle.KindProduct {
			return bundle.Defaults{}, fmt.Errorf("%w: %s", bundle.ErrUnsupportedKind, kind)
		}
		return bundle.Defaults{}, fmt.Errorf("%w: %q", bundle.ErrUnknownKind, string(kind))
	}

	path := filepath.Join(l.dir, name)
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return bundle.Defaults{}, fmt.Errorf("defaults %s: %w", path, err)
	}

	var d bundle.Defaults
	if err := k.Unmarshal("", &d); err != nil {
		return bundle.Defaults{}, fmt.Errorf("defaults %s: %w", path, err)
	}
	if d.BundleVersion == "" {
		return bundle.Defaults{}, fmt.Errorf("defaults %s: bundle_version missing", path)
	}

	l.byKind[kind] = d
	zap.S().Debugw("bundle defaults loaded", "kind", kind, "version", d.BundleVersion, "file", path)
	return d, nil
}

// Reset drops every cached kind so the next call re-reads its file.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.byKind = make(map[bundle.Kind]bundle.Defaults)
	l.mu.Unlock()
}
