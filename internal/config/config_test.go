package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duynguyendang/shaclreport/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, report.PredicateResult, cfg.Report.ResultPredicate)
	assert.Equal(t, report.DefaultConfig(), cfg.Report.ReportSettings())
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shaclreport.yaml")
	content := `
data_dir: /var/lib/shaclreport
server:
  port: 9090
log:
  level: debug
  format: json
report:
  display_limit: 50
  checked_property_predicate: http://www.w3.org/ns/shacl#sourceShape
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/shaclreport", cfg.DataDir)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Report.DisplayLimit)
	assert.Equal(t, "http://www.w3.org/ns/shacl#sourceShape", cfg.Report.CheckedPropertyPredicate)
	// untouched keys keep their defaults
	assert.Equal(t, report.PredicateFocusNode, cfg.Report.FocusNodePredicate)
	assert.Equal(t, 10, cfg.Store.MaxOpenStores)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"SHACLREPORT_DATA_DIR":      "/tmp/data",
		"SHACLREPORT_LOG_LEVEL":     "warn",
		"SHACLREPORT_READ_ONLY":     "true",
		"SHACLREPORT_DISPLAY_LIMIT": "5",
		"PORT":                      "3000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/data", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Store.ReadOnly)
	assert.Equal(t, 5, cfg.Report.DisplayLimit)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestApplyEnvPrefixedPortWins(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"PORT":             "3000",
		"SHACLREPORT_PORT": "4000",
	}))
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"integer", map[string]string{"SHACLREPORT_BATCH_SIZE": "lots"}},
		{"boolean", map[string]string{"SHACLREPORT_READ_ONLY": "maybe"}},
		{"plain port", map[string]string{"PORT": "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(envMap(tt.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = " " }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad log output", func(c *Config) { c.Log.Output = "syslog" }},
		{"unknown profile", func(c *Config) { c.Store.Profile = "Turbo" }},
		{"no open stores", func(c *Config) { c.Store.MaxOpenStores = 0 }},
		{"empty result predicate", func(c *Config) { c.Report.ResultPredicate = "" }},
		{"empty focus predicate", func(c *Config) { c.Report.FocusNodePredicate = "" }},
		{"zero display limit", func(c *Config) { c.Report.DisplayLimit = 0 }},
		{"zero batch size", func(c *Config) { c.Report.BatchSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
