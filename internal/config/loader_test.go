package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", os.ErrNotExist
	}
	return v, nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	return root
}

const baseYAML = `
http:
  listen_addr: "127.0.0.1:8090"
database:
  dsn: "cms:%s@tcp(db:3306)/cms?parseTime=true"
  password: "vault:secret/seobundles#db_password"
defaults:
  dir: conf/bundles
log:
  level: info
`

func TestLoadResolvesVaultAndEnv(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv("SEOBUNDLE_HTTP__LISTEN_ADDR", "0.0.0.0:9000")

	cfg, err := loadFrom(context.Background(), root, fakeSecrets{"secret/seobundles#db_password": "hunter2"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.ListenAddr)
	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t, "cms:hunter2@tcp(db:3306)/cms?parseTime=true", cfg.DSN())
	assert.Equal(t, filepath.Join(root, "conf", "bundles"), cfg.Defaults.Dir)
	assert.Same(t, cfg, Get())
}

func TestLoadRejectsVaultRefWithoutClient(t *testing.T) {
	root := writeRoot(t, baseYAML)
	_, err := loadFrom(context.Background(), root, nil)
	assert.ErrorContains(t, err, "database.password")
}

func TestLoadValidates(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: "not an address"
database:
  dsn: "no verb"
  password: x
defaults:
  dir: conf/bundles
`)
	_, err := loadFrom(context.Background(), root, nil)
	assert.Error(t, err)
}
