package packets

import "encoding/binary"

// PubrecPacket represents an MQTT PUBREC control packet (QoS 2, step 1).
type PubrecPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubrecPacket) Type() uint8 {
	return PUBREC
}

// Encode appends the PUBREC packet's wire representation to dst.
func (p *PubrecPacket) Encode(dst []byte) ([]byte, error) {
	header := FixedHeader{PacketType: PUBREC, RemainingLength: 2}
	dst = header.appendBytes(dst)
	return binary.BigEndian.AppendUint16(dst, p.PacketID), nil
}

// DecodePubrec decodes a PUBREC packet body.
func DecodePubrec(buf []byte) (*PubrecPacket, error) {
	if len(buf) < 2 {
		return nil, ErrCodec
	}
	return &PubrecPacket{PacketID: binary.BigEndian.Uint16(buf[0:2])}, nil
}
