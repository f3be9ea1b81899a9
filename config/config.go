package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode"

	"github.com/industriverse/capstream/types"
)

// Duration wraps time.Duration so config files can use strings like "30s"
// or raw nanosecond numbers interchangeably.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON writes the duration in string form ("1m30s").
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val))
	default:
		return fmt.Errorf("invalid duration value of type %T", v)
	}
	return nil
}

// Config is the complete application configuration with one typed section
// per pipeline stage. The pipeline shape is fixed, so there is no generic
// component map; unknown sections in a config file are rejected by Validate
// staying silent, not by the decoder.
type Config struct {
	Service   ServiceConfig   `json:"service"`
	NATS      NATSConfig      `json:"nats"`
	Ingest    IngestConfig    `json:"ingest"`
	Processor ProcessorConfig `json:"processor"`
	Rules     RulesConfig     `json:"rules"`
	Gateway   GatewayConfig   `json:"gateway"`
	Admin     AdminConfig     `json:"admin"`
}

// ServiceConfig carries identity and process-wide settings.
type ServiceConfig struct {
	Name            string   `json:"name"`
	LogLevel        string   `json:"logLevel"`  // debug, info, warn, error
	LogFormat       string   `json:"logFormat"` // text, json
	ShutdownTimeout Duration `json:"shutdownTimeout"`
}

// NATSConfig defines NATS connection settings.
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"maxReconnects,omitempty"`
	ReconnectWait Duration      `json:"reconnectWait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections.
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"certFile,omitempty"`
	KeyFile  string `json:"keyFile,omitempty"`
	CAFile   string `json:"caFile,omitempty"`
}

// IngestConfig configures the UDP telemetry listener.
type IngestConfig struct {
	ListenAddr    string `json:"listenAddr"`    // host:port for the UDP socket
	MaxPacketSize int    `json:"maxPacketSize"` // read buffer per datagram
	BufferSize    int    `json:"bufferSize"`    // readings queued between socket and publisher
	Subject       string `json:"subject"`       // NATS subject raw readings are published to
}

// ProcessorConfig configures rule evaluation and capsule management.
type ProcessorConfig struct {
	Subject             string   `json:"subject"`             // NATS subject to consume readings from
	Workers             int      `json:"workers"`             // evaluation workers; 1 preserves arrival order
	QueueSize           int      `json:"queueSize"`           // pending readings before shedding
	HistorySize         int      `json:"historySize"`         // retained readings per source
	EventsSubjectPrefix string   `json:"eventsSubjectPrefix"` // capsule events go to <prefix>.<type>
	PublishEvents       bool     `json:"publishEvents"`       // mirror capsule events onto NATS
	ActionSubject       string   `json:"actionSubject"`       // request/reply subject for action execution
	ActionTimeout       Duration `json:"actionTimeout"`       // how long to wait for an action handler
}

// RulesConfig seeds the rule registry at startup. File points at a JSON or
// YAML document holding a list of rules; Rules holds them inline. Both may
// be set; file rules load first.
type RulesConfig struct {
	File  string       `json:"file,omitempty"`
	Rules []types.Rule `json:"rules,omitempty"`
}

// GatewayConfig configures the WebSocket capsule stream.
type GatewayConfig struct {
	ListenAddr        string   `json:"listenAddr"`
	Path              string   `json:"path"`
	HeartbeatInterval Duration `json:"heartbeatInterval"` // liveness sweep period
	HeartbeatTimeout  Duration `json:"heartbeatTimeout"`  // silence before eviction
	SendQueueSize     int      `json:"sendQueueSize"`     // per-connection outbound queue
	ReadLimit         int64    `json:"readLimit"`         // max inbound message bytes
	AllowedOrigins    []string `json:"allowedOrigins,omitempty"`
}

// AdminConfig configures the admin HTTP API.
type AdminConfig struct {
	ListenAddr string `json:"listenAddr"`
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// Default returns the configuration defaults. Every section is runnable
// as-is against a local NATS server.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            "capstream",
			LogLevel:        "info",
			LogFormat:       "text",
			ShutdownTimeout: Duration(30 * time.Second),
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
		},
		Ingest: IngestConfig{
			ListenAddr:    ":9999",
			MaxPacketSize: 64 * 1024,
			BufferSize:    10000,
			Subject:       "telemetry.readings.raw",
		},
		Processor: ProcessorConfig{
			Subject:             "telemetry.readings.raw",
			Workers:             1,
			QueueSize:           10000,
			HistorySize:         1000,
			EventsSubjectPrefix: "capsules.events",
			PublishEvents:       true,
			ActionSubject:       "capsules.actions.execute",
			ActionTimeout:       Duration(5 * time.Second),
		},
		Gateway: GatewayConfig{
			ListenAddr:        ":8081",
			Path:              "/ws",
			HeartbeatInterval: Duration(30 * time.Second),
			HeartbeatTimeout:  Duration(60 * time.Second),
			SendQueueSize:     64,
			ReadLimit:         512 * 1024,
		},
		Admin: AdminConfig{
			ListenAddr: ":8080",
		},
	}
}

// Validate checks the whole configuration. Rules are validated here too, so
// a bad operator or empty template fails at startup rather than on the
// evaluation hot path.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service.name is required")
	}
	switch c.Service.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("service.logLevel %q is not one of debug, info, warn, error", c.Service.LogLevel)
	}
	switch c.Service.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("service.logFormat %q is not one of text, json", c.Service.LogFormat)
	}

	if len(c.NATS.URLs) == 0 {
		return errors.New("nats.urls is required")
	}

	if err := validateListenAddr("ingest.listenAddr", c.Ingest.ListenAddr); err != nil {
		return err
	}
	if c.Ingest.MaxPacketSize <= 0 {
		return errors.New("ingest.maxPacketSize must be positive")
	}
	if c.Ingest.BufferSize <= 0 {
		return errors.New("ingest.bufferSize must be positive")
	}
	if err := validateSubject("ingest.subject", c.Ingest.Subject); err != nil {
		return err
	}

	if err := validateSubject("processor.subject", c.Processor.Subject); err != nil {
		return err
	}
	if c.Processor.Workers <= 0 {
		return errors.New("processor.workers must be positive")
	}
	if c.Processor.QueueSize <= 0 {
		return errors.New("processor.queueSize must be positive")
	}
	if c.Processor.HistorySize <= 0 {
		return errors.New("processor.historySize must be positive")
	}
	if err := validateSubject("processor.eventsSubjectPrefix", c.Processor.EventsSubjectPrefix); err != nil {
		return err
	}
	if err := validateSubject("processor.actionSubject", c.Processor.ActionSubject); err != nil {
		return err
	}
	if c.Processor.ActionTimeout <= 0 {
		return errors.New("processor.actionTimeout must be positive")
	}

	for i, rule := range c.Rules.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rules.rules[%d]: %w", i, err)
		}
	}

	if err := validateListenAddr("gateway.listenAddr", c.Gateway.ListenAddr); err != nil {
		return err
	}
	if c.Gateway.Path == "" || !strings.HasPrefix(c.Gateway.Path, "/") {
		return fmt.Errorf("gateway.path %q must start with /", c.Gateway.Path)
	}
	if c.Gateway.HeartbeatInterval <= 0 {
		return errors.New("gateway.heartbeatInterval must be positive")
	}
	if c.Gateway.HeartbeatTimeout <= c.Gateway.HeartbeatInterval {
		return errors.New("gateway.heartbeatTimeout must exceed gateway.heartbeatInterval")
	}
	if c.Gateway.SendQueueSize <= 0 {
		return errors.New("gateway.sendQueueSize must be positive")
	}

	if err := validateListenAddr("admin.listenAddr", c.Admin.ListenAddr); err != nil {
		return err
	}

	return nil
}

func validateListenAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q is not a valid host:port: %w", field, addr, err)
	}
	return nil
}

// validateSubject checks a string is usable as a NATS subject: dot separated
// tokens of letters, digits, dashes, and underscores.
func validateSubject(field, subject string) error {
	if subject == "" {
		return fmt.Errorf("%s is required", field)
	}
	for _, token := range strings.Split(subject, ".") {
		if token == "" {
			return fmt.Errorf("%s %q has an empty subject token", field, subject)
		}
		for _, r := range token {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
				return fmt.Errorf("%s %q is not a valid NATS subject", field, subject)
			}
		}
	}
	return nil
}

// String returns a JSON representation of the config with credentials masked.
func (c *Config) String() string {
	clone := c.Clone()
	if clone.NATS.Password != "" {
		clone.NATS.Password = "****"
	}
	if clone.NATS.Token != "" {
		clone.NATS.Token = "****"
	}
	data, _ := json.MarshalIndent(clone, "", "  ")
	return string(data)
}
