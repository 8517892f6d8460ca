// Package engine provides the shared transmit buffer and tick driver that
// the received-publish and subscription engines drain into.
package engine

import "github.com/gonzalop/mqttcore/internal/packets"

// TransmitBuffer is a fixed-capacity, append-only byte buffer that
// implements the C1 write_packet contract: WritePacket either appends the
// packet's encoding and advances the cursor, or leaves the buffer
// completely unchanged and reports ErrNotEnoughSpace.
type TransmitBuffer struct {
	buf      []byte
	capacity int
}

// NewTransmitBuffer returns an empty TransmitBuffer with room for capacity
// bytes.
func NewTransmitBuffer(capacity int) *TransmitBuffer {
	return &TransmitBuffer{buf: make([]byte, 0, capacity), capacity: capacity}
}

// WritePacket encodes p and appends it to the buffer. On ErrNotEnoughSpace
// the buffer is left unchanged, so the caller's state machine can retry on
// the next tick. Any other non-nil error comes from encoding the packet; the
// buffer is likewise left unchanged, and the engines log it and retry on
// the next tick.
func (t *TransmitBuffer) WritePacket(p packets.Packet) error {
	encoded, err := p.Encode(nil)
	if err != nil {
		return err
	}

	if len(t.buf)+len(encoded) > t.capacity {
		return packets.ErrNotEnoughSpace
	}

	t.buf = append(t.buf, encoded...)
	return nil
}

// Bytes returns the buffer's current contents. The returned slice aliases
// the buffer's storage and is invalidated by the next WritePacket or Reset.
func (t *TransmitBuffer) Bytes() []byte {
	return t.buf
}

// RemainingCapacity reports how many more bytes can be appended before
// WritePacket starts failing with ErrNotEnoughSpace.
func (t *TransmitBuffer) RemainingCapacity() int {
	return t.capacity - len(t.buf)
}

// Reset empties the buffer for reuse, typically after its contents have
// been flushed to the transport.
func (t *TransmitBuffer) Reset() {
	t.buf = t.buf[:0]
}
