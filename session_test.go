package mqttcore

import (
	"context"
	"testing"
	"time"

	"github.com/gonzalop/mqttcore/internal/packets"
	"github.com/gonzalop/mqttcore/subscribe"
)

func TestSessionCloseFailsPendingTokens(t *testing.T) {
	s := NewSession(256, time.Hour, func([]byte) error { return nil })
	defer close(s.Events)

	topic, err := NewTopic("a/b")
	if err != nil {
		t.Fatal(err)
	}

	tok, err := s.Subscribe(context.Background(), topic, AtMostOnce)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err == nil {
		t.Fatal("expected Close to report the abandoned pending request")
	}

	select {
	case <-tok.Done():
	default:
		t.Fatal("token was not completed by Close")
	}
	if tok.Error() != ErrConnectionFailed {
		t.Fatalf("token error = %v, want ErrConnectionFailed", tok.Error())
	}
}

func TestSessionSubscribeTokenCompletesOnSuback(t *testing.T) {
	var flushed [][]byte
	flush := func(b []byte) error {
		cp := append([]byte(nil), b...)
		flushed = append(flushed, cp)
		return nil
	}

	s := NewSession(256, time.Millisecond, flush)
	defer close(s.Events)

	topic, err := NewTopic("a/b")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	tok, err := s.Subscribe(ctx, topic, AtLeastOnce)
	if err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	go s.Run(runCtx)

	deadline := time.Now().Add(200 * time.Millisecond)
	for len(flushed) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(flushed) == 0 {
		t.Fatal("driver never flushed the SUBSCRIBE packet")
	}

	pkt, _, err := packets.Decode(flushed[0])
	if err != nil {
		t.Fatal(err)
	}
	sub, ok := pkt.(*packets.SubscribePacket)
	if !ok {
		t.Fatalf("got %#v, want SUBSCRIBE", pkt)
	}

	if err := s.HandleIncoming(ctx, &packets.SubackPacket{
		PacketID:    sub.PacketID,
		ReturnCodes: []uint8{packets.SubackQoS0 | 0x01},
	}, nil); err != nil {
		t.Fatal(err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer waitCancel()
	if err := tok.Wait(waitCtx); err != nil {
		t.Fatalf("token did not complete successfully: %v", err)
	}
	if tok.QoS() != AtLeastOnce {
		t.Fatalf("tok.QoS() = %v, want %v", tok.QoS(), AtLeastOnce)
	}
}

func TestSessionPublishDeliveredToSink(t *testing.T) {
	s := NewSession(256, time.Hour, func([]byte) error { return nil })
	defer close(s.Events)

	var delivered []MqttPublish
	sink := func(m MqttPublish) { delivered = append(delivered, m) }

	pkt := &packets.PublishPacket{QoS: 0, Topic: "t", Payload: []byte("x")}
	if err := s.HandleIncoming(context.Background(), pkt, sink); err != nil {
		t.Fatal(err)
	}

	if len(delivered) != 1 || string(delivered[0].Payload) != "x" {
		t.Fatalf("delivered = %+v", delivered)
	}
}

func TestSessionSeedAutoSubscribesEmitsInitialDoneEvent(t *testing.T) {
	topic, _ := NewTopic("x")

	flushed := make(chan []byte, 1)
	sess := NewSession(256, time.Millisecond, func(b []byte) error {
		flushed <- append([]byte(nil), b...)
		return nil
	})
	defer close(sess.Events)
	sess.SeedAutoSubscribes([]subscribe.AutoSubscribe{{Topic: topic, QoS: AtMostOnce}})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go sess.Run(ctx)

	raw := <-flushed
	pkt, _, err := packets.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	sub := pkt.(*packets.SubscribePacket)

	if err := sess.HandleIncoming(context.Background(), &packets.SubackPacket{
		PacketID:    sub.PacketID,
		ReturnCodes: []uint8{packets.SubackQoS0},
	}, nil); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-sess.Events:
		if _, ok := ev.(InitialSubscribesDoneEvent); !ok {
			t.Fatalf("got %#v, want InitialSubscribesDoneEvent", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("InitialSubscribesDoneEvent never arrived")
	}
}
