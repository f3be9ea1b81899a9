package component

import (
	"encoding/json"
	"testing"

	"github.com/industriverse/capstream/errors"
)

func TestPortResourceIdentity(t *testing.T) {
	tests := []struct {
		name        string
		port        Portable
		resourceID  string
		isExclusive bool
		portType    string
	}{
		{
			name:        "udp listener",
			port:        NetworkPort{Protocol: "udp", Host: "0.0.0.0", Port: 9999},
			resourceID:  "udp:0.0.0.0:9999",
			isExclusive: true,
			portType:    "network",
		},
		{
			name:        "admin http listener",
			port:        NetworkPort{Protocol: "tcp", Host: "0.0.0.0", Port: 8080},
			resourceID:  "tcp:0.0.0.0:8080",
			isExclusive: true,
			portType:    "network",
		},
		{
			name:        "readings subject",
			port:        NATSPort{Subject: "telemetry.readings.raw"},
			resourceID:  "nats:telemetry.readings.raw",
			isExclusive: false,
			portType:    "nats",
		},
		{
			name:        "action relay",
			port:        NATSRequestPort{Subject: "capsules.actions.execute", Timeout: "5s"},
			resourceID:  "nats-request:capsules.actions.execute",
			isExclusive: false,
			portType:    "nats-request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.port.ResourceID(); got != tt.resourceID {
				t.Errorf("ResourceID() = %q, want %q", got, tt.resourceID)
			}
			if got := tt.port.IsExclusive(); got != tt.isExclusive {
				t.Errorf("IsExclusive() = %v, want %v", got, tt.isExclusive)
			}
			if got := tt.port.Type(); got != tt.portType {
				t.Errorf("Type() = %q, want %q", got, tt.portType)
			}
		})
	}
}

func TestPort_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		port Port
	}{
		{
			name: "network port",
			port: Port{
				Name:        "telemetry",
				Direction:   DirectionInput,
				Required:    true,
				Description: "UDP telemetry listener",
				Config:      NetworkPort{Protocol: "udp", Host: "0.0.0.0", Port: 9999},
			},
		},
		{
			name: "nats port with contract",
			port: Port{
				Name:      "readings",
				Direction: DirectionOutput,
				Config: NATSPort{
					Subject:   "telemetry.readings.raw",
					Interface: &InterfaceContract{Type: "types.Reading", Version: "v1"},
				},
			},
		},
		{
			name: "nats request port",
			port: Port{
				Name:      "actions",
				Direction: DirectionOutput,
				Config:    NATSRequestPort{Subject: "capsules.actions.execute", Timeout: "5s"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.port)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var decoded Port
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			if decoded.Name != tt.port.Name {
				t.Errorf("Name = %q, want %q", decoded.Name, tt.port.Name)
			}
			if decoded.Direction != tt.port.Direction {
				t.Errorf("Direction = %q, want %q", decoded.Direction, tt.port.Direction)
			}

			// The concrete port type must survive the round trip.
			if decoded.Config == nil {
				t.Fatal("Config is nil after round trip")
			}
			if decoded.Config.Type() != tt.port.Config.Type() {
				t.Errorf("Config.Type() = %q, want %q", decoded.Config.Type(), tt.port.Config.Type())
			}
			if decoded.Config.ResourceID() != tt.port.Config.ResourceID() {
				t.Errorf("Config.ResourceID() = %q, want %q",
					decoded.Config.ResourceID(), tt.port.Config.ResourceID())
			}
		})
	}
}

func TestPort_UnmarshalUnknownType(t *testing.T) {
	raw := `{"name":"x","direction":"input","config":{"type":"carrier-pigeon","data":{}}}`

	var port Port
	err := json.Unmarshal([]byte(raw), &port)
	if err == nil {
		t.Fatal("expected error for unknown port type")
	}
	if !errors.IsInvalid(err) {
		t.Errorf("error should classify as invalid, got %v", err)
	}
}

func TestPort_MarshalNilConfig(t *testing.T) {
	port := Port{Name: "bare", Direction: DirectionInput}

	data, err := json.Marshal(port)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Port
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Config != nil {
		t.Errorf("Config = %v, want nil", decoded.Config)
	}
}
