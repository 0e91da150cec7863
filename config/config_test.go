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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "monitoredItems", cfg.Storage.ItemsKey)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, 5, cfg.Monitor.MinInterval)
	assert.True(t, cfg.Log.Console)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: memory
monitor:
  timeout: 3s
  parallelism: 4
log:
  files: [/tmp/uptime.log]
  check_level: error
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.Monitor.Timeout)
	assert.Equal(t, 4, cfg.Monitor.Parallelism)
	assert.Equal(t, 5, cfg.Monitor.MinInterval, "unset keys keep their defaults")
	assert.Equal(t, []string{"/tmp/uptime.log"}, cfg.Log.Files)
	assert.Equal(t, "error", cfg.Log.CheckLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))

	t.Setenv("UPTIME_ADDR", ":9100")
	t.Setenv("UPTIME_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("UPTIME_MIN_INTERVAL", "15")
	t.Setenv("UPTIME_LOG_CONSOLE", "false")
	t.Setenv("UPTIME_CHECKS_PER_SECOND", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15, cfg.Monitor.MinInterval)
	assert.False(t, cfg.Log.Console)
	assert.Equal(t, 2.5, cfg.Monitor.ChecksPerSecond)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory driver needs no dir", mutate: func(c *Config) { c.Storage.Driver = DriverMemory; c.Storage.Dir = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.Storage.Driver = DriverPostgres
			c.Storage.PostgresURL = "postgres://localhost/uptime"
		}},
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = " " }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Monitor.Timeout = 0 }, wantErr: true},
		{name: "zero min interval", mutate: func(c *Config) { c.Monitor.MinInterval = 0 }, wantErr: true},
		{name: "zero parallelism", mutate: func(c *Config) { c.Monitor.Parallelism = 0 }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.Monitor.ChecksPerSecond = -1 }, wantErr: true},
		{name: "bad check level", mutate: func(c *Config) { c.Log.CheckLevel = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
