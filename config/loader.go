package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/industriverse/capstream/types"
)

// Loader builds a Config from layered files plus environment overrides.
// Later layers win key-by-key; the defaults from Default() are always the
// bottom layer. Files may be JSON or YAML; both decode through the same
// JSON field tags, so YAML documents use the camelCase key names too.
type Loader struct {
	layers    []string
	envPrefix string
}

// NewLoader creates a loader with no layers configured.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "CAPSTREAM",
	}
}

// AddLayer appends a config file to the merge stack. The file does not have
// to exist yet; missing optional layers are skipped at Load time.
func (l *Loader) AddLayer(path string) *Loader {
	l.layers = append(l.layers, path)
	return l
}

// LoadFile loads a single config file over the defaults.
func LoadFile(path string) (*Config, error) {
	return NewLoader().AddLayer(path).Load()
}

// Load merges defaults, file layers, and environment overrides, then
// validates the result.
func (l *Loader) Load() (*Config, error) {
	merged, err := configToMap(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare defaults: %w", err)
	}

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load config layer %s: %w", path, err)
		}
		deepMergeMaps(merged, raw)
	}

	cfg, err := configFromMap(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to decode merged config: %w", err)
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadRaw reads and parses one file into a raw map, picking the decoder by
// extension.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return raw, nil
}

// deepMergeMaps merges src into dst recursively. Nested maps merge
// key-by-key; everything else, including slices, replaces wholesale.
func deepMergeMaps(dst, src map[string]any) {
	for key, srcVal := range src {
		if dstMap, ok := dst[key].(map[string]any); ok {
			if srcMap, ok := srcVal.(map[string]any); ok {
				deepMergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
}

func configToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func configFromMap(raw map[string]any) (*Config, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides maps a small set of environment variables onto the
// config. These cover what operators actually change between deployments;
// everything else belongs in a file layer.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		suffix string
		apply  func(string)
	}{
		{"NATS_URLS", func(v string) { cfg.NATS.URLs = splitAndTrim(v) }},
		{"NATS_USERNAME", func(v string) { cfg.NATS.Username = v }},
		{"NATS_PASSWORD", func(v string) { cfg.NATS.Password = v }},
		{"NATS_TOKEN", func(v string) { cfg.NATS.Token = v }},
		{"LOG_LEVEL", func(v string) { cfg.Service.LogLevel = v }},
		{"LOG_FORMAT", func(v string) { cfg.Service.LogFormat = v }},
		{"INGEST_LISTEN", func(v string) { cfg.Ingest.ListenAddr = v }},
		{"GATEWAY_LISTEN", func(v string) { cfg.Gateway.ListenAddr = v }},
		{"ADMIN_LISTEN", func(v string) { cfg.Admin.ListenAddr = v }},
		{"RULES_FILE", func(v string) { cfg.Rules.File = v }},
	}

	for _, o := range overrides {
		name := l.envPrefix + "_" + o.suffix
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if err := validateEnvVar(name, value); err != nil {
			return err
		}
		o.apply(value)
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// rulesDocument is the shape of a rules preload file. A bare top-level list
// is accepted too.
type rulesDocument struct {
	Rules []types.Rule `json:"rules"`
}

// LoadRulesFile reads a JSON or YAML document holding alert rules. Every
// rule is validated; one bad rule fails the whole file so a typo cannot
// silently drop alerting coverage.
func LoadRulesFile(path string) ([]types.Rule, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	isYAML := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		isYAML = true
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML in rules file %s: %w", path, err)
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("failed to convert rules file %s: %w", path, err)
		}
	}

	var doc rulesDocument
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Rules) > 0 {
		return validateRules(path, doc.Rules)
	}

	var rules []types.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		format := "JSON"
		if isYAML {
			format = "YAML"
		}
		return nil, fmt.Errorf("rules file %s is not a %s rule list: %w", path, format, err)
	}
	return validateRules(path, rules)
}

func validateRules(path string, rules []types.Rule) ([]types.Rule, error) {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rules file %s: rule[%d] %s: %w", path, i, rule.ID, err)
		}
	}
	return rules, nil
}
