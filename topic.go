package mqttcore

// MaxTopicLength is the capacity of a Topic. Wire topics longer than this
// fail inbound processing with ErrReceivedMessageTooLong.
const MaxTopicLength = 64

// MaxPayloadLength is the capacity of a Payload. Inbound payloads longer
// than this are truncated, not dropped.
const MaxPayloadLength = 64

// Topic is a bounded UTF-8 topic name or filter.
type Topic string

// NewTopic validates that s fits within MaxTopicLength and returns it as a
// Topic. Overlong input fails with ErrReceivedMessageTooLong, matching the
// inbound PUBLISH handling in the received-publish engine.
func NewTopic(s string) (Topic, error) {
	if len(s) > MaxTopicLength {
		return "", ErrReceivedMessageTooLong
	}
	return Topic(s), nil
}

// Payload is a bounded publish payload.
type Payload []byte

// NewPayload truncates p to MaxPayloadLength if it is longer, returning the
// (possibly truncated) Payload and whether truncation occurred.
func NewPayload(p []byte) (Payload, bool) {
	if len(p) <= MaxPayloadLength {
		return Payload(p), false
	}
	truncated := make([]byte, MaxPayloadLength)
	copy(truncated, p)
	return Payload(truncated), true
}
