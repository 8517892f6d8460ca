package packets

import "encoding/binary"

// UnsubscribePacket represents an MQTT UNSUBSCRIBE control packet.
type UnsubscribePacket struct {
	PacketID uint16
	Topics   []string
}

// Type returns the packet type.
func (p *UnsubscribePacket) Type() uint8 {
	return UNSUBSCRIBE
}

// Encode appends the UNSUBSCRIBE packet's wire representation to dst.
// UNSUBSCRIBE has fixed header flags 0x02 (bit 1 set).
func (p *UnsubscribePacket) Encode(dst []byte) ([]byte, error) {
	payloadLen := 0
	for _, topic := range p.Topics {
		payloadLen += 2 + len(topic)
	}
	remainingLength := 2 + payloadLen

	header := FixedHeader{PacketType: UNSUBSCRIBE, Flags: 0x02, RemainingLength: remainingLength}
	dst = header.appendBytes(dst)
	dst = binary.BigEndian.AppendUint16(dst, p.PacketID)

	for _, topic := range p.Topics {
		dst = appendString(dst, topic)
	}

	return dst, nil
}

// DecodeUnsubscribe decodes an UNSUBSCRIBE packet body.
func DecodeUnsubscribe(buf []byte) (*UnsubscribePacket, error) {
	if len(buf) < 2 {
		return nil, ErrCodec
	}

	pkt := &UnsubscribePacket{PacketID: binary.BigEndian.Uint16(buf[0:2])}
	offset := 2

	for offset < len(buf) {
		topic, n, err := decodeString(buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		pkt.Topics = append(pkt.Topics, topic)
	}

	if len(pkt.Topics) == 0 {
		return nil, ErrCodec
	}

	return pkt, nil
}
