package packets

import "encoding/binary"

// SubackPacket represents an MQTT SUBACK control packet.
type SubackPacket struct {
	PacketID    uint16
	ReturnCodes []uint8
}

// Type returns the packet type.
func (p *SubackPacket) Type() uint8 {
	return SUBACK
}

// Encode appends the SUBACK packet's wire representation to dst.
func (p *SubackPacket) Encode(dst []byte) ([]byte, error) {
	remainingLength := 2 + len(p.ReturnCodes)
	header := FixedHeader{PacketType: SUBACK, RemainingLength: remainingLength}
	dst = header.appendBytes(dst)
	dst = binary.BigEndian.AppendUint16(dst, p.PacketID)
	return append(dst, p.ReturnCodes...), nil
}

// DecodeSuback decodes a SUBACK packet body.
func DecodeSuback(buf []byte) (*SubackPacket, error) {
	if len(buf) < 2 {
		return nil, ErrCodec
	}

	pkt := &SubackPacket{PacketID: binary.BigEndian.Uint16(buf[0:2])}
	if len(buf) > 2 {
		pkt.ReturnCodes = append([]uint8(nil), buf[2:]...)
	}

	return pkt, nil
}
