package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8091, cfg.Server.Port)
	assert.Equal(t, "admind-1", cfg.Cluster.NodeName)
	assert.False(t, cfg.Cluster.GossipEnabled)
	assert.Equal(t, 8, cfg.Replicator.BroadcastFanout)
	assert.Equal(t, 100, cfg.Admin.MaxDBsInfoCount)
	assert.False(t, cfg.Admin.MaintenanceMode)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9091, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
cluster:
  node_name: admind-test
  admin_url: http://admind-test:9000
admin:
  max_dbs_info_count: 25
catalog:
  in_memory: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "admind-test", cfg.Cluster.NodeName)
	assert.Equal(t, 25, cfg.Admin.MaxDBsInfoCount)
	assert.True(t, cfg.Catalog.InMemory)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Cluster.NodeName = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Admin.MaxDBsInfoCount = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Replicator.BroadcastFanout = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Catalog.DataDir = ""
	cfg.Catalog.InMemory = false
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RateLimiter.Enabled = true
	cfg.RateLimiter.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())
}
