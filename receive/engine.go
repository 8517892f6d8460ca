// Package receive implements the received-publish engine (C3): the
// per-inbound-message state machines that drive PUBACK/PUBREC/PUBCOMP
// responses and suppress duplicate delivery to the application.
package receive

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gonzalop/mqttcore"
	"github.com/gonzalop/mqttcore/internal/engine"
	"github.com/gonzalop/mqttcore/internal/packets"
	"github.com/gonzalop/mqttcore/internal/queue"
)

// MaxConcurrentPublishes bounds the number of in-flight QoS>0 inbound
// publishes tracked at once.
const MaxConcurrentPublishes = 8

type state int

const (
	stateInitial state = iota
	stateAwaitPubrel
	stateSendPubcomp
	stateDone
)

type receivedPublish struct {
	pid        uint16
	qos        mqttcore.QoS
	state      state
	awaitSince time.Time
}

// Engine tracks one receivedPublish record per in-flight QoS>0 inbound PID.
type Engine struct {
	queue  *queue.Queue[*receivedPublish]
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug/error diagnostics. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source; intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:  queue.New[*receivedPublish](MaxConcurrentPublishes),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessPublish handles one inbound PUBLISH. QoS 0 messages are delivered
// to sink immediately with no state record. For QoS>0, a PID already
// tracked by this engine is always a retransmission of a record still
// in flight and is dropped without reaching sink, regardless of dup; a
// dup=true PUBLISH for a PID this engine has not seen is treated as a
// late retransmission of an already delivered message and is also
// dropped. Only a non-dup PUBLISH for a PID not already tracked creates
// a fresh record and reaches sink.
func (e *Engine) ProcessPublish(ctx context.Context, pkt *packets.PublishPacket, sink func(mqttcore.MqttPublish)) error {
	topic, err := mqttcore.NewTopic(pkt.Topic)
	if err != nil {
		e.logger.Warn("dropping inbound publish with overlong topic", slog.Int("len", len(pkt.Topic)))
		return nil
	}

	payload, truncated := mqttcore.NewPayload(pkt.Payload)
	if truncated {
		e.logger.Warn("truncating oversized inbound payload", slog.String("topic", string(topic)))
	}

	qos := mqttcore.QoS(pkt.QoS)
	msg := mqttcore.MqttPublish{
		Topic:     topic,
		Payload:   payload,
		QoS:       qos,
		Retain:    pkt.Retain,
		Duplicate: pkt.Dup,
	}

	if qos == mqttcore.AtMostOnce {
		sink(msg)
		return nil
	}

	if e.isKnownPID(pkt.PacketID) {
		e.logger.Debug("dropping duplicate publish for known pid", slog.Int("pid", int(pkt.PacketID)))
		return nil
	}
	if pkt.Dup {
		e.logger.Debug("dropping duplicate publish for unknown pid", slog.Int("pid", int(pkt.PacketID)))
		return nil
	}

	record := &receivedPublish{pid: pkt.PacketID, qos: qos, state: stateInitial}
	if err := e.queue.Push(ctx, record); err != nil {
		return err
	}

	sink(msg)
	return nil
}

// ProcessPubrel handles an inbound PUBREL for a QoS 2 exchange, advancing
// the matching record to SendPubcomp. A PUBREL for an unknown PID is
// logged and discarded.
func (e *Engine) ProcessPubrel(pid uint16) {
	found := false
	e.queue.Operate(func(items []*receivedPublish) {
		for _, r := range items {
			if r.pid == pid {
				r.state = stateSendPubcomp
				found = true
				return
			}
		}
	})
	if !found {
		e.logger.Warn("received pubrel for unknown pid", slog.Int("pid", int(pid)))
	}
}

func (e *Engine) isKnownPID(pid uint16) bool {
	known := false
	e.queue.Operate(func(items []*receivedPublish) {
		for _, r := range items {
			if r.pid == pid {
				known = true
				return
			}
		}
	})
	return known
}

// Tick drives every live record's send-and-update step into w, then sweeps
// records that reached Done. Codec and capacity errors are absorbed here
// per the engine's error-handling design: NotEnoughSpace and CodecError are
// both logged, not propagated, and retried on the next tick.
func (e *Engine) Tick(w *engine.TransmitBuffer) error {
	e.queue.Operate(func(items []*receivedPublish) {
		for _, r := range items {
			e.sendAndUpdate(r, w)
		}
	})

	e.queue.Retain(func(r *receivedPublish) bool {
		return r.state != stateDone
	})

	return nil
}

func (e *Engine) sendAndUpdate(r *receivedPublish, w *engine.TransmitBuffer) {
	switch r.state {
	case stateInitial:
		e.sendInitial(r, w)
	case stateAwaitPubrel:
		// no resend of PUBREC while waiting for the broker's PUBREL
	case stateSendPubcomp:
		e.sendPubcomp(r, w)
	case stateDone:
	}
}

func (e *Engine) sendInitial(r *receivedPublish, w *engine.TransmitBuffer) {
	switch r.qos {
	case mqttcore.AtLeastOnce:
		err := w.WritePacket(&packets.PubackPacket{PacketID: r.pid})
		switch {
		case err == nil:
			r.state = stateDone
		case err == packets.ErrNotEnoughSpace:
			e.logger.Debug("not enough space to write puback", slog.Int("pid", int(r.pid)))
		default:
			e.logger.Error("could not encode puback", slog.Int("pid", int(r.pid)), slog.Any("err", err))
		}
	case mqttcore.ExactlyOnce:
		err := w.WritePacket(&packets.PubrecPacket{PacketID: r.pid})
		switch {
		case err == nil:
			r.state = stateAwaitPubrel
			r.awaitSince = e.now()
		case err == packets.ErrNotEnoughSpace:
			e.logger.Debug("not enough space to write pubrec", slog.Int("pid", int(r.pid)))
		default:
			e.logger.Error("could not encode pubrec", slog.Int("pid", int(r.pid)), slog.Any("err", err))
		}
	}
}

func (e *Engine) sendPubcomp(r *receivedPublish, w *engine.TransmitBuffer) {
	err := w.WritePacket(&packets.PubcompPacket{PacketID: r.pid})
	switch {
	case err == nil:
		r.state = stateDone
	case err == packets.ErrNotEnoughSpace:
		e.logger.Debug("not enough space to write pubcomp", slog.Int("pid", int(r.pid)))
	default:
		e.logger.Error("could not encode pubcomp", slog.Int("pid", int(r.pid)), slog.Any("err", err))
	}
}
