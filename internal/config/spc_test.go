package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSPCConfigHolder_Defaults(t *testing.T) {
	holder, err := NewSPCConfigHolder(Config{SPCConfigPath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DefaultSPCConfig(), holder.Get())
}

func TestSPCConfigHolder_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("spc:\n  recentWindow: 25\n  orderCheck: true\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spc.yml"), content, 0o600))

	holder, err := NewSPCConfigHolder(Config{SPCConfigPath: dir}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 25, cfg.RecentWindow)
	assert.True(t, cfg.OrderCheck)
}

func TestSPCConfigHolder_RejectsInvalidWindow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spc.yml"), []byte("spc:\n  recentWindow: 0\n"), 0o600))

	_, err := NewSPCConfigHolder(Config{SPCConfigPath: dir}, zap.NewNop())
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *SPCConfigHolder
	assert.Equal(t, 10, holder.Get().RecentWindow)
}
