package packets

import (
	"strings"
	"unicode/utf8"
)

// appendString appends a length-prefixed UTF-8 string to dst.
func appendString(dst []byte, s string) []byte {
	length := uint16(len(s))
	dst = append(dst, byte(length>>8), byte(length))
	return append(dst, s...)
}

// appendBinary appends length-prefixed binary data to dst.
func appendBinary(dst []byte, data []byte) []byte {
	length := uint16(len(data))
	dst = append(dst, byte(length>>8), byte(length))
	return append(dst, data...)
}

// decodeString decodes an MQTT UTF-8 string (2-byte length + data).
// Returns the string, number of bytes consumed, and any error.
func decodeString(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, ErrCodec
	}

	length := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+length {
		return "", 0, ErrCodec
	}
	ret := string(buf[2 : 2+length])
	if strings.Contains(ret, "\x00") || !utf8.ValidString(ret) {
		return "", 0, ErrCodec
	}

	return ret, 2 + length, nil
}

// decodeBinary reads length-prefixed binary data from the buffer.
// Returns the data, number of bytes consumed, and any error. The returned
// slice aliases buf; callers that retain it past the lifetime of buf must copy.
func decodeBinary(buf []byte) ([]byte, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrCodec
	}

	length := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+length {
		return nil, 0, ErrCodec
	}

	return buf[2 : 2+length], 2 + length, nil
}
