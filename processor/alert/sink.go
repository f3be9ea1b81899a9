package alert

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/industriverse/capstream/natsclient"
	"github.com/industriverse/capstream/types"
)

// defaultEventsPrefix is where capsule events land when no prefix is
// configured.
const defaultEventsPrefix = "capsules.events"

// NATSEventSink mirrors capsule lifecycle events onto NATS, one subject per
// event type under a common prefix. External consumers (recorders, pagers,
// other services) subscribe there; in-process viewers use the WebSocket
// gateway. Publishing is fire-and-forget: a failed publish is logged and
// the event dropped, matching the pipeline's at-most-once delivery.
type NATSEventSink struct {
	client *natsclient.Client
	prefix string
	logger *slog.Logger
}

// NewNATSEventSink creates a sink publishing under the given prefix.
func NewNATSEventSink(client *natsclient.Client, prefix string, logger *slog.Logger) *NATSEventSink {
	if prefix == "" {
		prefix = defaultEventsPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSEventSink{client: client, prefix: prefix, logger: logger}
}

// Subject returns the subject events of the given type are published to.
func (s *NATSEventSink) Subject(eventType types.CapsuleEventType) string {
	return s.prefix + "." + string(eventType)
}

// OnCapsuleEvent implements EventSink.
func (s *NATSEventSink) OnCapsuleEvent(event types.CapsuleEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to encode capsule event",
			"capsuleId", event.CapsuleID,
			"type", event.Type,
			"error", err)
		return
	}

	subject := s.Subject(event.Type)
	if err := s.client.Publish(context.Background(), subject, data); err != nil {
		s.logger.Warn("failed to publish capsule event",
			"subject", subject,
			"capsuleId", event.CapsuleID,
			"error", err)
	}
}
