// internal/config/model.go
//
// Typed configuration model for the bundle service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `.env`                             – dotenv values,
//   - `conf/global.yaml`                          – primary static file,
//   - `SEOBUNDLE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client before unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds webhook listener tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	Token      string `koanf:"token"`
}

//
// Database section
//

// Database holds the CMS database DSN and its secret.
//
// The DSN template keeps one `%s` verb where the password goes, so host,
// port, and flags stay in YAML while the password comes from Vault.
type Database struct {
	DSN          string        `koanf:"dsn"            validate:"required,contains=%s"`
	Password     string        `koanf:"password"       validate:"required"`
	MaxOpen      int           `koanf:"max_open"       validate:"gte=0"`
	MaxIdle      int           `koanf:"max_idle"       validate:"gte=0"`
	ConnectTries int           `koanf:"connect_tries"  validate:"gte=0"`
	ConnectDelay time.Duration `koanf:"connect_delay"`
}

//
// Defaults section
//

// Defaults locates the built-in bundle defaults.  A relative Dir is
// resolved against Paths.Root.
type Defaults struct {
	Dir string `koanf:"dir" validate:"required"`
}

//
// Log section
//

// Log tunes the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SEOBUNDLE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Defaults Defaults `koanf:"defaults"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
