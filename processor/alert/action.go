package alert

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/natsclient"
)

// ActionHandler executes a user-initiated capsule action. Implementations
// block until the action completes or ctx expires. The returned error is
// relayed to the acting subscriber as an action_failed message and to
// nobody else.
type ActionHandler interface {
	PerformAction(ctx context.Context, capsuleID, action string, metadata map[string]any) error
}

// ActionRequest is the payload sent to external action executors.
type ActionRequest struct {
	RequestID string         `json:"requestId"`
	CapsuleID string         `json:"capsuleId"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ActionReply is the executor's response.
type ActionReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

const defaultActionTimeout = 5 * time.Second

// NATSActionForwarder hands action verbs to an external executor over a
// NATS request/reply subject. No responder on the subject reports
// ErrNoHandler; an executor that replies not-OK surfaces its error message
// wrapped in ErrActionHandler.
type NATSActionForwarder struct {
	client  *natsclient.Client
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// NewNATSActionForwarder creates a forwarder for the given subject.
func NewNATSActionForwarder(
	client *natsclient.Client, subject string, timeout time.Duration, logger *slog.Logger,
) *NATSActionForwarder {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSActionForwarder{
		client:  client,
		subject: subject,
		timeout: timeout,
		logger:  logger,
	}
}

// PerformAction implements ActionHandler over NATS request/reply.
func (f *NATSActionForwarder) PerformAction(
	ctx context.Context, capsuleID, action string, metadata map[string]any,
) error {
	req := ActionRequest{
		RequestID: uuid.NewString(),
		CapsuleID: capsuleID,
		Action:    action,
		Metadata:  metadata,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return errors.WrapInvalid(err, "NATSActionForwarder", "PerformAction", "encode action request")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Debug("forwarding action",
		"requestId", req.RequestID,
		"capsuleId", capsuleID,
		"action", action,
		"subject", f.subject)

	reply, err := f.client.Request(ctx, f.subject, data)
	switch {
	case err == nil:
	case stderrors.Is(err, nats.ErrNoResponders):
		return errors.WrapTransient(errors.ErrNoHandler, "NATSActionForwarder", "PerformAction",
			fmt.Sprintf("forward %s for capsule %s", action, capsuleID))
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.WrapTransient(err, "NATSActionForwarder", "PerformAction",
			fmt.Sprintf("action %s timed out after %s", action, f.timeout))
	default:
		return errors.WrapTransient(err, "NATSActionForwarder", "PerformAction",
			fmt.Sprintf("forward %s for capsule %s", action, capsuleID))
	}

	var result ActionReply
	if err := json.Unmarshal(reply, &result); err != nil {
		return errors.WrapInvalid(err, "NATSActionForwarder", "PerformAction", "decode action reply")
	}
	if !result.OK {
		msg := result.Error
		if msg == "" {
			msg = "action rejected"
		}
		return errors.WrapTransient(
			fmt.Errorf("%w: %s", errors.ErrActionHandler, msg),
			"NATSActionForwarder", "PerformAction",
			fmt.Sprintf("execute %s on capsule %s", action, capsuleID))
	}

	f.logger.Debug("action executed",
		"requestId", req.RequestID,
		"capsuleId", capsuleID,
		"action", action)
	return nil
}
