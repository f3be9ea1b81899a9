// Package natsclient wraps the NATS Go client with circuit breaker
// protection, reconnect handling, and the small operation surface the
// pipeline actually uses: publish, subscribe, queue subscribe, and
// request/reply.
//
// Every stage of the pipeline talks through one shared Client: the UDP
// input publishes raw readings, the alert processor subscribes to them and
// publishes capsule events, the action relay round-trips requests to
// external handlers, and component log streaming publishes entries for
// remote tailing.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Publish(ctx, "telemetry.readings.raw", payload)
//
//	err = client.Subscribe(ctx, "telemetry.readings.raw", func(msgCtx context.Context, data []byte) {
//	    // Handler context carries a 30s processing budget.
//	})
//
// The url may be a comma-separated server list; the underlying client
// fails over between them.
//
// # Request/Reply
//
// Capsule actions that need an external executor use NATS request/reply.
// The requesting side calls Request with a deadline context; the executor
// side registers with SubscribeReply and returns the response bytes:
//
//	reply, err := client.Request(ctx, "capsules.actions.execute", reqBytes)
//
// A request against a subject nobody serves fails with
// nats.ErrNoResponders, which callers treat as an external handler error
// rather than a transport fault.
//
// # Circuit Breaker
//
// Connection failures count toward a threshold (default 5). Crossing it
// opens the circuit: Connect fails fast with ErrCircuitOpen while the
// backoff runs, and the backoff doubles each round up to a cap (default one
// minute). A successful connect or server-driven reconnect resets the
// breaker. This keeps a flapping NATS server from turning the boot path
// into a tight retry loop.
//
// # Health and Metrics
//
// With a non-zero health interval the client probes the connection
// periodically, flips status between connected and reconnecting, and
// invokes the OnHealthChange callback on transitions. WithMetrics wires the
// registry's core NATS series: connected gauge, RTT, reconnect counter, and
// circuit breaker state.
//
// # Testing
//
// TestClient runs a disposable NATS server in a container:
//
//	func TestSomething(t *testing.T) {
//	    tc := natsclient.NewTestClient(t)
//	    tc.Client.Publish(ctx, "subject", data)
//	}
//
// NewSharedTestClient is the TestMain variant: it returns errors instead of
// requiring a testing.T, so one container can back a whole package's
// integration tests.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Close may be called more
// than once; credentials are cleared from memory when it runs.
package natsclient
