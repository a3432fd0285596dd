package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/xerrors"
)

const baseYAML = `
log:
  level: info
  format: json
nft:
  allocator_floor: 100
  max_name_len: 32
storage:
  driver: memory
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaults(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	impl := l.(*loader)
	assert.Equal(t, "config", impl.cfg.Name)
	assert.Equal(t, "yaml", impl.cfg.FileType)
	assert.Equal(t, DefaultEnvPrefix, impl.cfg.EnvPrefix)
	assert.Equal(t, []string{".", "./config"}, impl.cfg.Paths)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)

	l, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTTEST"))
	require.NoError(t, err)

	assert.Equal(t, "info", l.Get("log.level"))

	var nftCfg struct {
		AllocatorFloor uint64 `mapstructure:"allocator_floor"`
		MaxNameLen     int    `mapstructure:"max_name_len"`
	}
	require.NoError(t, l.UnmarshalKey("nft", &nftCfg))
	assert.Equal(t, uint64(100), nftCfg.AllocatorFloor)
	assert.Equal(t, 32, nftCfg.MaxNameLen)
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	t.Setenv("NFTENV_LOG_LEVEL", "debug")

	l, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("nftenv"))
	require.NoError(t, err)

	assert.Equal(t, "debug", l.Get("log.level"))

	var logCfg struct {
		Level string `mapstructure:"level"`
	}
	require.NoError(t, l.UnmarshalKey("log", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
}

func TestEnvOverrideReachesEveryUnmarshalPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	t.Setenv("NFTSUB_LOG_LEVEL", "warn")
	t.Setenv("NFTSUB_NFT_ALLOCATOR_FLOOR", "7")

	l, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTSUB"))
	require.NoError(t, err)

	type logSection struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}
	type nftSection struct {
		AllocatorFloor uint64 `mapstructure:"allocator_floor"`
		MaxNameLen     int    `mapstructure:"max_name_len"`
	}

	var logCfg logSection
	require.NoError(t, l.UnmarshalKey("log", &logCfg))
	assert.Equal(t, logSection{Level: "warn", Format: "json"}, logCfg)

	var nftCfg nftSection
	require.NoError(t, l.UnmarshalKey("nft", &nftCfg))
	assert.Equal(t, nftSection{AllocatorFloor: 7, MaxNameLen: 32}, nftCfg)

	var all struct {
		Log logSection `mapstructure:"log"`
		NFT nftSection `mapstructure:"nft"`
	}
	require.NoError(t, l.Unmarshal(&all))
	assert.Equal(t, logCfg, all.Log)
	assert.Equal(t, nftCfg, all.NFT)

	var driver string
	require.NoError(t, l.UnmarshalKey("storage.driver", &driver))
	assert.Equal(t, "memory", driver)
}

func TestEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)
	writeFile(t, dir, "config.prod.yaml", "storage:\n  driver: sqlite\n")
	t.Setenv("NFTOVL_ENV", "prod")

	l, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTOVL"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", l.Get("storage.driver"))
	assert.Equal(t, "info", l.Get("log.level"))
}

func TestLoadEmptyConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTEMPTY"))
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, ErrValidationFailed))
	assert.True(t, IsInvalidInput(err))
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "log: [unclosed\n")

	_, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTBAD"))
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, ErrLoadFailed))
}

func TestWatchClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", baseYAML)

	l, err := Load(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTWATCH"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := l.Watch(ctx, "log.level")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel was not closed")
	}
}

func TestMustLoadPanics(t *testing.T) {
	dir := t.TempDir()
	assert.Panics(t, func() {
		MustLoad(context.Background(), WithConfigPaths(dir), WithEnvPrefix("NFTPANIC"))
	})
}
