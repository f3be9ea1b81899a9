package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industriverse/capstream/types"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Test loading a JSON file over the defaults
func TestLoader_LoadJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"service": {"name": "capstream-edge", "logLevel": "debug"},
		"nats": {
			"urls": ["nats://a:4222", "nats://b:4222"],
			"maxReconnects": 10,
			"reconnectWait": "5s"
		},
		"processor": {"workers": 4}
	}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "capstream-edge", cfg.Service.Name)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Len(t, cfg.NATS.URLs, 2)
	assert.Equal(t, 10, cfg.NATS.MaxReconnects)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait.Std())
	assert.Equal(t, 4, cfg.Processor.Workers)

	// Untouched sections keep their defaults.
	assert.Equal(t, ":9999", cfg.Ingest.ListenAddr)
	assert.Equal(t, 1000, cfg.Processor.HistorySize)
}

// Test loading a YAML file with the same camelCase keys
func TestLoader_LoadYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
service:
  name: capstream-yaml
gateway:
  listenAddr: ":9090"
  heartbeatInterval: 10s
  heartbeatTimeout: 25s
rules:
  rules:
    - id: r-1
      name: High CPU
      enabled: true
      sourceId: server-1
      metric: cpu
      operator: ">"
      threshold: 80
      capsuleTemplate:
        title: "CPU at {metricValue}%"
        priority: high
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "capstream-yaml", cfg.Service.Name)
	assert.Equal(t, ":9090", cfg.Gateway.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.Gateway.HeartbeatInterval.Std())
	assert.Equal(t, 25*time.Second, cfg.Gateway.HeartbeatTimeout.Std())

	require.Len(t, cfg.Rules.Rules, 1)
	rule := cfg.Rules.Rules[0]
	assert.Equal(t, "r-1", rule.ID)
	assert.Equal(t, types.OpGreaterThan, rule.Operator)
	assert.Equal(t, 80.0, rule.Threshold)
	assert.Equal(t, "CPU at {metricValue}%", rule.Template.Title)
}

// Test later layers override earlier ones key-by-key
func TestLoader_LayerPrecedence(t *testing.T) {
	base := writeConfigFile(t, "base.json", `{
		"service": {"name": "base", "logLevel": "warn"},
		"admin": {"listenAddr": ":7000"}
	}`)
	override := writeConfigFile(t, "override.yaml", `
service:
  name: override
`)

	cfg, err := NewLoader().AddLayer(base).AddLayer(override).Load()
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Service.Name)
	// Keys the later layer does not mention survive from the earlier one.
	assert.Equal(t, "warn", cfg.Service.LogLevel)
	assert.Equal(t, ":7000", cfg.Admin.ListenAddr)
}

// Test missing layers are skipped rather than fatal
func TestLoader_MissingLayerSkipped(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	cfg, err := NewLoader().AddLayer(missing).Load()
	require.NoError(t, err)
	assert.Equal(t, "capstream", cfg.Service.Name)
}

// Test environment overrides beat file layers
func TestLoader_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"nats": {"urls": ["nats://file:4222"]}
	}`)

	t.Setenv("CAPSTREAM_NATS_URLS", "nats://env-a:4222, nats://env-b:4222")
	t.Setenv("CAPSTREAM_LOG_LEVEL", "error")
	t.Setenv("CAPSTREAM_ADMIN_LISTEN", ":6060")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"nats://env-a:4222", "nats://env-b:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "error", cfg.Service.LogLevel)
	assert.Equal(t, ":6060", cfg.Admin.ListenAddr)
}

// Test a layer that fails validation surfaces the error
func TestLoader_InvalidConfigRejected(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"processor": {"workers": 0}
	}`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor.workers")
}

// Test unsupported extensions are rejected before reading
func TestLoader_RejectsUnknownExtension(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `service = "x"`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON or YAML")
}

// Test rules preload from a bare JSON list
func TestLoadRulesFile_JSONList(t *testing.T) {
	path := writeConfigFile(t, "rules.json", `[
		{
			"id": "cpu-high",
			"name": "High CPU",
			"enabled": true,
			"sourceId": "server-1",
			"metric": "cpu",
			"operator": ">",
			"threshold": 85,
			"capsuleTemplate": {"title": "CPU at {metricValue}%"}
		},
		{
			"id": "temp-low",
			"enabled": false,
			"sourceId": "sensor-7",
			"metric": "temperature",
			"operator": "<",
			"threshold": 5,
			"capsuleTemplate": {"title": "Temperature dropped on {sourceId}"}
		}
	]`)

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "cpu-high", rules[0].ID)
	assert.Equal(t, 85.0, rules[0].Threshold)
	assert.False(t, rules[1].Enabled)
}

// Test rules preload from a YAML document with a rules key
func TestLoadRulesFile_YAMLDocument(t *testing.T) {
	path := writeConfigFile(t, "rules.yaml", `
rules:
  - id: mem-high
    enabled: true
    sourceId: server-2
    metric: memory
    operator: ">="
    threshold: 90
    capsuleTemplate:
      title: Memory pressure
      actions: [acknowledge, escalate]
`)

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, types.OpGreaterOrEqual, rules[0].Operator)
	assert.Equal(t, []string{"acknowledge", "escalate"}, rules[0].Template.Actions)
}

// Test one invalid rule fails the whole file
func TestLoadRulesFile_InvalidRule(t *testing.T) {
	path := writeConfigFile(t, "rules.json", `[
		{
			"id": "broken",
			"enabled": true,
			"sourceId": "server-1",
			"metric": "cpu",
			"operator": "~=",
			"threshold": 1,
			"capsuleTemplate": {"title": "x"}
		}
	]`)

	_, err := LoadRulesFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
