package packets

import "encoding/binary"

// SubscribePacket represents an MQTT SUBSCRIBE control packet.
type SubscribePacket struct {
	PacketID uint16
	Topics   []string
	QoS      []uint8 // QoS level requested for each topic
}

// Type returns the packet type.
func (p *SubscribePacket) Type() uint8 {
	return SUBSCRIBE
}

// Encode appends the SUBSCRIBE packet's wire representation to dst.
// SUBSCRIBE has fixed header flags 0x02 (bit 1 set).
func (p *SubscribePacket) Encode(dst []byte) ([]byte, error) {
	payloadLen := 0
	for _, topic := range p.Topics {
		payloadLen += 2 + len(topic) + 1
	}
	remainingLength := 2 + payloadLen

	header := FixedHeader{PacketType: SUBSCRIBE, Flags: 0x02, RemainingLength: remainingLength}
	dst = header.appendBytes(dst)
	dst = binary.BigEndian.AppendUint16(dst, p.PacketID)

	for i, topic := range p.Topics {
		dst = appendString(dst, topic)
		qos := uint8(QoS0)
		if i < len(p.QoS) {
			qos = p.QoS[i]
		}
		dst = append(dst, qos&0x03)
	}

	return dst, nil
}

// DecodeSubscribe decodes a SUBSCRIBE packet body.
func DecodeSubscribe(buf []byte) (*SubscribePacket, error) {
	if len(buf) < 2 {
		return nil, ErrCodec
	}

	pkt := &SubscribePacket{PacketID: binary.BigEndian.Uint16(buf[0:2])}
	offset := 2

	for offset < len(buf) {
		topic, n, err := decodeString(buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n

		if offset >= len(buf) {
			return nil, ErrCodec
		}
		opts := buf[offset]
		offset++

		pkt.Topics = append(pkt.Topics, topic)
		pkt.QoS = append(pkt.QoS, opts&0x03)
	}

	if len(pkt.Topics) == 0 {
		return nil, ErrCodec
	}

	return pkt, nil
}
