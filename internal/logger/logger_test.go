package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesDailyFile(t *testing.T) {
	root := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(root, "debug", false)
	require.NoError(t, err)
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"probe"`)
	assert.Contains(t, string(b), `"logger online"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(t.TempDir(), "loud", false)
	assert.Error(t, err)
}
