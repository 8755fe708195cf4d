// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `SEOBUNDLE_`, where `__` maps to “.”
     (e.g., `SEOBUNDLE_HTTP__LISTEN_ADDR → http.listen_addr`).

Before unmarshalling, every string value of the form `vault:<path>#<key>`
is replaced by the secret read through a SecretReader.  The merged tree
is then unmarshalled, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  - DEBUG spans, root discovery, YAML read, secret resolution.
  - ERROR spans, YAML parse, env overlay, unmarshal, validation failures.
  - INFO  span, final “config loaded” with key highlights.
  - Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.

Notes
-----
  - `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`.
  - Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "SEOBUNDLE_"
	vaultPrefix = "vault:"
	secretTTL   = 5 * time.Minute
)

// SecretReader resolves one key of a KV secret.  *vault.Client satisfies it.
type SecretReader interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SEOBUNDLE_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for the
// production layout.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves vault references through
// secrets, validates, and caches Config.  secrets may be nil when no value
// uses a vault reference.
func Load(ctx context.Context, secrets SecretReader) (*Config, error) {
	return loadFrom(ctx, rootDir(), secrets)
}

func loadFrom(ctx context.Context, root string, secrets SecretReader) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: SEOBUNDLE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if cfg.Defaults.Dir != "" && !filepath.IsAbs(cfg.Defaults.Dir) {
		cfg.Defaults.Dir = filepath.Join(root, cfg.Defaults.Dir)
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"defaults_dir", cfg.Defaults.Dir,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps every `vault:<path>#<key>` string in k for the
// secret it names.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretReader) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("%s: vault reference without a vault client", key)
		}
		path, field, found := strings.Cut(strings.TrimPrefix(s, vaultPrefix), "#")
		if !found {
			return fmt.Errorf("%s: vault reference %q has no #key", key, s)
		}
		secret, err := secrets.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}

// NeedsVault reports whether the config files reference Vault, so callers
// only dial Vault when they must.
func NeedsVault() bool {
	b, err := os.ReadFile(filepath.Join(rootDir(), "conf", "global.yaml"))
	if err != nil {
		return false
	}
	if strings.Contains(string(b), vaultPrefix) {
		return true
	}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, envPrefix) && strings.Contains(kv, "="+vaultPrefix) {
			return true
		}
	}
	return false
}

// DSN returns the database DSN with the password substituted.
func (c *Config) DSN() string {
	return fmt.Sprintf(c.Database.DSN, c.Database.Password)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

// Reload re-runs Load with the same secret reader and swaps the pointer.
func Reload(ctx context.Context, secrets SecretReader) error {
	_, err := Load(ctx, secrets)
	return err
}
