package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", dir}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 25*time.Second, cfg.RPC.GetReadTimeout())
	assert.Equal(t, "parity_getBlockReceipts", cfg.RPC.ReceiptsMethod)
	assert.Equal(t, "parity_chainStatus", cfg.RPC.GapsMethod)
	assert.Equal(t, time.Duration(0), cfg.Cache.GetCleanupInterval())
	assert.Equal(t, 10, cfg.Blocks.GetRecentCount())
	assert.Equal(t, "http://127.0.0.1:8545", cfg.Mode.Eth1)
	assert.False(t, cfg.Mode.Serve)
}

func TestLoad_FileAndFlags(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("logger:\n  level: debug\nrpc:\n  read_timeout: 3s\nblocks:\n  recent_count: 4\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	fs := Flags()
	require.NoError(t, fs.Parse([]string{
		"--config", dir,
		"--networks-file", "nets.txt",
		"--tag", "archive,-staging",
		"--endpoints",
	}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 3*time.Second, cfg.RPC.GetReadTimeout())
	assert.Equal(t, 4, cfg.Blocks.GetRecentCount())
	assert.Equal(t, "nets.txt", cfg.Mode.NetworksFile)
	assert.Equal(t, "archive,-staging", cfg.Mode.Tag)
	assert.True(t, cfg.Mode.Endpoints)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CHAINSTATE_ETH1", "http://node.internal:8545")
	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", t.TempDir()}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "http://node.internal:8545", cfg.Mode.Eth1)
}
