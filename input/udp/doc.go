// Package udp is the UDP ingress for telemetry readings.
//
// External producers push one JSON reading per datagram. Both accepted
// shapes are handled by the shared reading parser: the canonical form with
// a nested "metrics" object, and the flat form where every field besides
// sourceId and timestamp is a metric. A datagram missing sourceId, or that
// is not a JSON object at all, is counted and dropped here so nothing
// malformed reaches the evaluation path.
//
// Valid readings are re-marshaled into the canonical form (stamping missing
// timestamps with arrival time), staged in a DropOldest ring buffer, and
// published to the raw readings subject. The ring absorbs bursts between
// socket reads and NATS publishes; under sustained overload the oldest
// staged readings are evicted first. Delivery is best effort: a publish
// that fails after retries loses that reading, matching the at-most-once
// semantics of the pipeline as a whole.
//
// The read loop uses a short poll deadline so shutdown is noticed quickly
// and staged readings are flushed during idle gaps.
package udp
