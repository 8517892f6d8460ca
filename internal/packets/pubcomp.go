package packets

import "encoding/binary"

// PubcompPacket represents an MQTT PUBCOMP control packet (QoS 2, step 3).
type PubcompPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubcompPacket) Type() uint8 {
	return PUBCOMP
}

// Encode appends the PUBCOMP packet's wire representation to dst.
func (p *PubcompPacket) Encode(dst []byte) ([]byte, error) {
	header := FixedHeader{PacketType: PUBCOMP, RemainingLength: 2}
	dst = header.appendBytes(dst)
	return binary.BigEndian.AppendUint16(dst, p.PacketID), nil
}

// DecodePubcomp decodes a PUBCOMP packet body.
func DecodePubcomp(buf []byte) (*PubcompPacket, error) {
	if len(buf) < 2 {
		return nil, ErrCodec
	}
	return &PubcompPacket{PacketID: binary.BigEndian.Uint16(buf[0:2])}, nil
}
