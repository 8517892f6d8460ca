package mqttcore

// Event is implemented by every application-facing event the engines emit.
type Event interface {
	isEvent()
}

// InitialSubscribesDoneEvent fires exactly once per connection, after every
// auto-subscribe seeded at connect time has received a successful SUBACK.
type InitialSubscribesDoneEvent struct{}

func (InitialSubscribesDoneEvent) isEvent() {}

// PublishResultEvent reports an outbound publish's terminal outcome.
type PublishResultEvent struct {
	ID  UniqueID
	Err error
}

func (PublishResultEvent) isEvent() {}

// SubscribeResultEvent reports a SUBACK outcome. QoS is the broker-granted
// level and is only meaningful when Err is nil.
type SubscribeResultEvent struct {
	ID  UniqueID
	QoS QoS
	Err error
}

func (SubscribeResultEvent) isEvent() {}

// UnsubscribeResultEvent reports an UNSUBACK outcome. MQTT 3.1.1 has no
// failure return codes for UNSUBACK, so Err is always nil in practice; the
// field exists for symmetry with SubscribeResultEvent.
type UnsubscribeResultEvent struct {
	ID  UniqueID
	Err error
}

func (UnsubscribeResultEvent) isEvent() {}
