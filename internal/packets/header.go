package packets

// FixedHeader represents the fixed header present in all MQTT control packets.
// Wire format: [PacketType + Flags (1 byte)][Remaining Length (1-4 bytes)]
type FixedHeader struct {
	PacketType      uint8
	Flags           uint8
	RemainingLength int
}

// appendBytes appends the encoded fixed header to dst and returns the extended slice.
func (h *FixedHeader) appendBytes(dst []byte) []byte {
	dst = append(dst, (h.PacketType<<4)|(h.Flags&0x0F))
	return appendVarInt(dst, h.RemainingLength)
}

// decodeFixedHeaderBuf decodes a fixed header from the front of buf.
// It returns the header, the number of bytes consumed, and ErrIncomplete if
// buf does not yet contain a full fixed header.
func decodeFixedHeaderBuf(buf []byte) (FixedHeader, int, error) {
	if len(buf) < 1 {
		return FixedHeader{}, 0, ErrIncomplete
	}

	firstByte := buf[0]
	remainingLength, n, err := decodeVarIntBuf(buf[1:])
	if err != nil {
		return FixedHeader{}, 0, err
	}

	return FixedHeader{
		PacketType:      firstByte >> 4,
		Flags:           firstByte & 0x0F,
		RemainingLength: remainingLength,
	}, 1 + n, nil
}
