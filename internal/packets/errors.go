package packets

import "errors"

var (
	// ErrIncomplete is returned by Decode when buf does not yet contain a
	// full control packet. No bytes are consumed; the caller should retry
	// once more data has arrived.
	ErrIncomplete = errors.New("packets: incomplete packet")

	// ErrCodec is returned for malformed input that can never become valid
	// by reading more bytes: a corrupt fixed header, a Variable Byte Integer
	// that overflows, a string that isn't valid UTF-8, and so on.
	ErrCodec = errors.New("packets: malformed packet")

	// ErrNotEnoughSpace is reported by fixed-capacity writers (such as the
	// engine's TransmitBuffer) when their remaining capacity is smaller than
	// a packet's encoded length; the buffer is left unchanged. Encode itself
	// never returns it.
	ErrNotEnoughSpace = errors.New("packets: not enough space")
)
