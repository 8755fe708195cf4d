package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetKVCachesWithinTTL(t *testing.T) {
	reads := 0
	c := newClient(zap.NewNop().Sugar(), func(_ context.Context, mount, rel string) (map[string]any, error) {
		reads++
		assert.Equal(t, "secret", mount)
		assert.Equal(t, "seobundles", rel)
		return map[string]any{"db_password": "hunter2", "port": 3306}, nil
	})
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := c.GetKV(ctx, "secret/seobundles", "db_password", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", v)
	}
	assert.Equal(t, 1, reads)

	now = now.Add(2 * time.Minute)
	_, err := c.GetKV(ctx, "secret/seobundles", "db_password", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, reads)

	_, err = c.GetKV(ctx, "secret/seobundles", "port", 0)
	assert.ErrorContains(t, err, "not a string")

	_, err = c.GetKV(ctx, "secret/seobundles", "missing", 0)
	assert.ErrorContains(t, err, "not found")

	_, err = c.GetKV(ctx, "", "x", 0)
	assert.Error(t, err)
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("kv/apps/seo")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "apps/seo", r)

	m, r = splitMount("kv")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "", r)
}
