package packets

import "encoding/binary"

// PublishPacket represents an MQTT 3.1.1 PUBLISH control packet.
type PublishPacket struct {
	Dup    bool
	QoS    uint8
	Retain bool

	Topic    string
	PacketID uint16 // only present if QoS > 0

	Payload []byte
}

// Type returns the packet type.
func (p *PublishPacket) Type() uint8 {
	return PUBLISH
}

// Encode appends the PUBLISH packet's wire representation to dst.
func (p *PublishPacket) Encode(dst []byte) ([]byte, error) {
	variableHeaderLen := 2 + len(p.Topic)
	if p.QoS > 0 {
		variableHeaderLen += 2
	}
	remainingLength := variableHeaderLen + len(p.Payload)

	var flags uint8
	if p.Dup {
		flags |= 0x08
	}
	flags |= (p.QoS & 0x03) << 1
	if p.Retain {
		flags |= 0x01
	}

	header := FixedHeader{PacketType: PUBLISH, Flags: flags, RemainingLength: remainingLength}
	dst = header.appendBytes(dst)

	dst = appendString(dst, p.Topic)
	if p.QoS > 0 {
		dst = binary.BigEndian.AppendUint16(dst, p.PacketID)
	}
	dst = append(dst, p.Payload...)

	return dst, nil
}

// DecodePublish decodes a PUBLISH packet body using the flags carried in header.
func DecodePublish(buf []byte, header FixedHeader) (*PublishPacket, error) {
	pkt := &PublishPacket{
		Dup:    (header.Flags & 0x08) != 0,
		QoS:    (header.Flags >> 1) & 0x03,
		Retain: (header.Flags & 0x01) != 0,
	}

	topic, n, err := decodeString(buf)
	if err != nil {
		return nil, err
	}
	pkt.Topic = topic
	offset := n

	if pkt.QoS > 0 {
		if offset+2 > len(buf) {
			return nil, ErrCodec
		}
		pkt.PacketID = binary.BigEndian.Uint16(buf[offset : offset+2])
		offset += 2
	}

	pkt.Payload = append([]byte(nil), buf[offset:]...)

	return pkt, nil
}
