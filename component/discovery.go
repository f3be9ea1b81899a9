// Package component defines the Discoverable interface and related types
package component

import (
	"time"
)

// Discoverable defines the interface for components that can be inspected by
// the management layer. The admin gateway reads these to serve health and
// stats queries.
//
// Components implementing this interface:
// - Input components: accept external data (UDP telemetry)
// - Processor components: evaluate readings and manage capsules
// - Output components: deliver capsule events (WebSocket, NATS)
// - Gateway components: serve the admin HTTP API
type Discoverable interface {
	// Meta returns basic component information
	Meta() Metadata

	// InputPorts returns the ports this component accepts data on
	InputPorts() []Port

	// OutputPorts returns the ports this component produces data on
	OutputPorts() []Port

	// Health returns current health status
	Health() HealthStatus

	// DataFlow returns current data flow metrics
	DataFlow() FlowMetrics
}

// Metadata describes what a component is
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "input", "processor", "output", "gateway"
	Description string `json:"description"`
	Version     string `json:"version"`
}

// HealthStatus describes the current health state of a component
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	LastCheck  time.Time     `json:"lastCheck"`
	ErrorCount int           `json:"errorCount"`
	LastError  string        `json:"lastError,omitempty"`
	Uptime     time.Duration `json:"uptime"`
}

// FlowMetrics describes the current data flow through a component
type FlowMetrics struct {
	MessagesPerSecond float64   `json:"messagesPerSecond"`
	BytesPerSecond    float64   `json:"bytesPerSecond"`
	ErrorRate         float64   `json:"errorRate"`
	LastActivity      time.Time `json:"lastActivity"`
}
