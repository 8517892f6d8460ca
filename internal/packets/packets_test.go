package packets

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, p Packet) (Packet, int) {
	t.Helper()
	encoded, err := p.Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, n, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	return decoded, n
}

func TestPublishRoundTripQoS0(t *testing.T) {
	p := &PublishPacket{Topic: "a/b", Payload: []byte("hello"), QoS: 0}
	decoded, _ := roundTrip(t, p)
	got := decoded.(*PublishPacket)
	if got.Topic != "a/b" || !bytes.Equal(got.Payload, []byte("hello")) || got.QoS != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestPublishRoundTripQoS2WithDupAndRetain(t *testing.T) {
	p := &PublishPacket{Topic: "t", Payload: []byte("x"), QoS: 2, PacketID: 42, Dup: true, Retain: true}
	decoded, _ := roundTrip(t, p)
	got := decoded.(*PublishPacket)
	if got.PacketID != 42 || !got.Dup || !got.Retain || got.QoS != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestPubackPubrecPubrelPubcompRoundTrip(t *testing.T) {
	cases := []Packet{
		&PubackPacket{PacketID: 7},
		&PubrecPacket{PacketID: 7},
		&PubrelPacket{PacketID: 7},
		&PubcompPacket{PacketID: 7},
	}
	for _, p := range cases {
		decoded, _ := roundTrip(t, p)
		if decoded.Type() != p.Type() {
			t.Fatalf("type mismatch: got %d want %d", decoded.Type(), p.Type())
		}
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	p := &SubscribePacket{PacketID: 3, Topics: []string{"a", "b/c"}, QoS: []uint8{0, 1}}
	decoded, _ := roundTrip(t, p)
	got := decoded.(*SubscribePacket)
	if got.PacketID != 3 || len(got.Topics) != 2 || got.Topics[1] != "b/c" || got.QoS[1] != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestSubackRoundTrip(t *testing.T) {
	p := &SubackPacket{PacketID: 3, ReturnCodes: []uint8{0x01, SubackFailure}}
	decoded, _ := roundTrip(t, p)
	got := decoded.(*SubackPacket)
	if got.PacketID != 3 || len(got.ReturnCodes) != 2 || got.ReturnCodes[1] != SubackFailure {
		t.Fatalf("got %+v", got)
	}
}

func TestUnsubscribeUnsubackRoundTrip(t *testing.T) {
	sub := &UnsubscribePacket{PacketID: 5, Topics: []string{"a/b"}}
	decoded, _ := roundTrip(t, sub)
	got := decoded.(*UnsubscribePacket)
	if got.PacketID != 5 || got.Topics[0] != "a/b" {
		t.Fatalf("got %+v", got)
	}

	unsuback := &UnsubackPacket{PacketID: 5}
	decoded2, _ := roundTrip(t, unsuback)
	if decoded2.(*UnsubackPacket).PacketID != 5 {
		t.Fatalf("got %+v", decoded2)
	}
}

func TestConnectConnackRoundTrip(t *testing.T) {
	p := &ConnectPacket{
		CleanSession: true,
		ClientID:     "client-1",
		KeepAlive:    60,
		UsernameFlag: true,
		Username:     "u",
		PasswordFlag: true,
		Password:     "p",
	}
	decoded, _ := roundTrip(t, p)
	got := decoded.(*ConnectPacket)
	if got.ClientID != "client-1" || got.Username != "u" || got.Password != "p" || got.KeepAlive != 60 {
		t.Fatalf("got %+v", got)
	}

	ack := &ConnackPacket{SessionPresent: true, ReturnCode: 0}
	decodedAck, _ := roundTrip(t, ack)
	gotAck := decodedAck.(*ConnackPacket)
	if !gotAck.SessionPresent || gotAck.ReturnCode != 0 {
		t.Fatalf("got %+v", gotAck)
	}
}

func TestPingreqPingrespDisconnectRoundTrip(t *testing.T) {
	for _, p := range []Packet{&PingreqPacket{}, &PingrespPacket{}, &DisconnectPacket{}} {
		decoded, n := roundTrip(t, p)
		if n != 2 {
			t.Fatalf("%T: expected a 2-byte fixed header with no payload, consumed %d", p, n)
		}
		if decoded.Type() != p.Type() {
			t.Fatalf("type mismatch for %T", p)
		}
	}
}

func TestDecodeIncompleteConsumesNothing(t *testing.T) {
	full, err := (&PubackPacket{PacketID: 1}).Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	_, n, err := Decode(full[:len(full)-1])
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	if n != 0 {
		t.Fatalf("consumed %d bytes on incomplete input, want 0", n)
	}
}

func TestDecodeMultiplePacketsBackToBack(t *testing.T) {
	var buf []byte
	buf, _ = (&PubackPacket{PacketID: 1}).Encode(buf)
	buf, _ = (&PubackPacket{PacketID: 2}).Encode(buf)

	first, n1, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	second, n2, err := Decode(buf[n1:])
	if err != nil {
		t.Fatal(err)
	}
	if n1+n2 != len(buf) {
		t.Fatalf("consumed %d+%d, want %d", n1, n2, len(buf))
	}
	if first.(*PubackPacket).PacketID != 1 || second.(*PubackPacket).PacketID != 2 {
		t.Fatalf("got %+v then %+v", first, second)
	}
}

func TestVarIntRoundTripAtBoundaries(t *testing.T) {
	for _, v := range []int{0, 127, 128, 16383, 16384, 2097151, 2097152, maxVarInt} {
		encoded := appendVarInt(nil, v)
		decoded, n, err := decodeVarIntBuf(encoded)
		if err != nil {
			t.Fatalf("value %d: %v", v, err)
		}
		if decoded != v || n != len(encoded) {
			t.Fatalf("value %d: got %d consuming %d of %d bytes", v, decoded, n, len(encoded))
		}
	}
}

func TestVarIntOverflowIsCodecError(t *testing.T) {
	_, _, err := decodeVarIntBuf([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F})
	if err != ErrCodec {
		t.Fatalf("err = %v, want ErrCodec", err)
	}
}
