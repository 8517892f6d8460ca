// Package mqttcore implements the MQTT 3.1.1 protocol engine for a
// constrained client: the per-message state machines that drive inbound
// PUBLISH acknowledgment and subscribe/unsubscribe request lifecycles,
// independent of any particular transport or I/O loop.
//
// The engine is built for bounded embedded use: every queue is a
// fixed-capacity slice sized at construction. State records, tokens, and
// encoded or decoded packets are ordinary heap allocations. Transport,
// TLS, credential loading, and the public high-level client surface
// (Dial, reconnect, persistence) are left to callers; this package only
// owns protocol state.
//
// # Components
//
// The receive subpackage implements the received-publish engine: one
// record per in-flight QoS 1/2 inbound message, each ticked into a
// transmit buffer to drive PUBACK/PUBREC/PUBCOMP. The subscribe
// subpackage implements the equivalent engine for outbound SUBSCRIBE and
// UNSUBSCRIBE requests, including auto-subscribe seeding at connect and
// SUBACK/UNSUBACK correlation. Session in this package ties both engines
// and a shared tick Driver together behind a Token-based submission API.
//
// # Wire codec
//
// internal/packets implements MQTT 3.1.1's fixed header, variable byte
// integer, and per-packet-type codecs as a buffer-append Encode plus a
// single Decode entry point that reports ErrIncomplete rather than
// blocking when a packet hasn't fully arrived yet.
package mqttcore
