// Package subscribe implements the subscription engine (C4): the
// per-subscribe/unsubscribe request state machines that drive SUBSCRIBE/
// UNSUBSCRIBE (re)transmission, SUBACK/UNSUBACK correlation, auto-subscribe
// seeding at connect, and "initial subscribes done" aggregation.
package subscribe

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gonzalop/mqttcore"
	"github.com/gonzalop/mqttcore/internal/engine"
	"github.com/gonzalop/mqttcore/internal/packets"
	"github.com/gonzalop/mqttcore/internal/queue"
)

// MaxConcurrentRequests bounds the number of in-flight subscribe/unsubscribe
// requests tracked at once.
const MaxConcurrentRequests = 4

// ResubscribeDuration is how long a request waits in AwaitAck before it is
// retransmitted.
const ResubscribeDuration = 5 * time.Second

type requestKind int

const (
	kindSubscribe requestKind = iota
	kindUnsubscribe
)

type requestState int

const (
	stateInitial requestState = iota
	stateAwaitAck
	stateDone
)

type request struct {
	kind       requestKind
	topic      mqttcore.Topic
	qos        mqttcore.QoS
	pid        uint16
	externalID mqttcore.UniqueID
	state      requestState
	awaitSince time.Time
	initial    bool
}

func (r *request) shouldPublish(now time.Time) bool {
	switch r.state {
	case stateInitial:
		return true
	case stateAwaitAck:
		return now.Sub(r.awaitSince) > ResubscribeDuration
	default:
		return false
	}
}

// onSendSuccess is called unconditionally after every successful write, not
// only from Initial. This mirrors the original engine's behavior: a retried
// write out of AwaitAck does not refresh awaitSince, so a stuck request
// that has crossed ResubscribeDuration once will be retried on every
// subsequent tick. This is a deliberately preserved, documented ambiguity
// rather than a bug fix.
func (r *request) onSendSuccess(now time.Time) {
	if r.state == stateInitial {
		r.state = stateAwaitAck
		r.awaitSince = now
	}
}

// AutoSubscribe is one entry of the auto-subscribe list seeded at connect.
type AutoSubscribe struct {
	Topic mqttcore.Topic
	QoS   mqttcore.QoS
}

// PIDSource allocates a fresh, currently-unused packet identifier.
type PIDSource func() uint16

// Engine tracks live subscribe/unsubscribe requests and the initial-
// subscribe tracker.
type Engine struct {
	mu                         sync.Mutex
	initialSubscriptionPending map[uint16]bool

	queue  *queue.Queue[*request]
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug/error/warn diagnostics. The
// default discards everything.
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
		initialSubscriptionPending: make(map[uint16]bool),
		queue:                      queue.New[*request](MaxConcurrentRequests),
		logger:                     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:                        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitSubscribe enqueues a subscribe request, suspending the caller if
// the queue is already at capacity, and returns the UniqueID the eventual
// SubscribeResultEvent will carry.
func (e *Engine) SubmitSubscribe(ctx context.Context, topic mqttcore.Topic, qos mqttcore.QoS, pid uint16) (mqttcore.UniqueID, error) {
	id := mqttcore.NewUniqueID()
	req := &request{kind: kindSubscribe, topic: topic, qos: qos, pid: pid, externalID: id}
	if err := e.queue.Push(ctx, req); err != nil {
		return 0, err
	}
	return id, nil
}

// SubmitUnsubscribe enqueues an unsubscribe request, suspending the caller
// if the queue is already at capacity.
func (e *Engine) SubmitUnsubscribe(ctx context.Context, topic mqttcore.Topic, pid uint16) (mqttcore.UniqueID, error) {
	id := mqttcore.NewUniqueID()
	req := &request{kind: kindUnsubscribe, topic: topic, pid: pid, externalID: id}
	if err := e.queue.Push(ctx, req); err != nil {
		return 0, err
	}
	return id, nil
}

// AddAutoSubscribes seeds the queue with the auto-subscribe list at connect
// time. It panics if len(autoSubscribes) exceeds the queue's capacity: per
// the engine's error-handling design, this is a programmer-invariant
// violation, not a runtime condition to recover from. If the queue is
// already occupied by prior (non-auto) requests, the oldest entry is
// evicted to make room. Only the tracker, not the queue, is cleared between
// connections, by ResetForNewConnection before this runs.
func (e *Engine) AddAutoSubscribes(autoSubscribes []AutoSubscribe, pidSource PIDSource) {
	if len(autoSubscribes) > e.queue.Cap() {
		panic("subscribe: number of auto subscribes must be <= subscribe request capacity")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, as := range autoSubscribes {
		pid := pidSource()
		id := mqttcore.NewUniqueID()
		req := &request{
			kind:       kindSubscribe,
			topic:      as.Topic,
			qos:        as.QoS,
			pid:        pid,
			externalID: id,
			initial:    true,
		}
		e.queue.PushEvictOldest(req)
		e.initialSubscriptionPending[pid] = false

		e.logger.Info("added auto subscribe request", slog.String("topic", string(as.Topic)))
	}
}

// ResetForNewConnection clears the initial-subscribe tracker. Call this
// before AddAutoSubscribes on every fresh connection.
func (e *Engine) ResetForNewConnection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialSubscriptionPending = make(map[uint16]bool)
}

// Tick (re)transmits every request whose state calls for it, then sweeps
// requests that reached Done. A NotEnoughSpace or codec error is logged and
// absorbed for that single request; the tick continues with the remaining
// requests rather than breaking out of the loop, matching the original
// engine's behavior (see the engine's design notes on starvation risk).
func (e *Engine) Tick(w *engine.TransmitBuffer) error {
	now := e.now()

	e.queue.Operate(func(items []*request) {
		for _, r := range items {
			if r.shouldPublish(now) {
				e.send(r, w, now)
			}
		}
	})

	e.queue.Retain(func(r *request) bool {
		return r.state != stateDone
	})

	return nil
}

func (e *Engine) send(r *request, w *engine.TransmitBuffer, now time.Time) {
	var pkt packets.Packet
	switch r.kind {
	case kindSubscribe:
		pkt = &packets.SubscribePacket{
			PacketID: r.pid,
			Topics:   []string{string(r.topic)},
			QoS:      []uint8{uint8(r.qos)},
		}
	case kindUnsubscribe:
		pkt = &packets.UnsubscribePacket{
			PacketID: r.pid,
			Topics:   []string{string(r.topic)},
		}
	}

	err := w.WritePacket(pkt)
	switch {
	case err == nil:
		r.onSendSuccess(now)
	case err == packets.ErrNotEnoughSpace:
		e.logger.Debug("not enough space to write subscribe/unsubscribe packet", slog.Int("pid", int(r.pid)))
	default:
		e.logger.Error("error encoding subscribe/unsubscribe packet", slog.Int("pid", int(r.pid)), slog.Any("err", err))
	}
}

// ProcessSuback correlates a SUBACK with its request and emits the
// resulting events. An empty return-code list is treated as Failure, not
// as a protocol error. A SUBACK for an unknown PID, for a request that
// isn't a Subscribe, or for a request not in AwaitAck is logged and
// discarded: no event is emitted.
func (e *Engine) ProcessSuback(suback *packets.SubackPacket) []mqttcore.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []mqttcore.Event

	var matched *request
	e.queue.Operate(func(items []*request) {
		for _, r := range items {
			if r.pid == suback.PacketID {
				matched = r
				return
			}
		}
	})

	if matched == nil {
		e.logger.Warn("received suback for unknown pid", slog.Int("pid", int(suback.PacketID)))
		e.sweepDone()
		return nil
	}

	if matched.kind != kindSubscribe || matched.state != stateAwaitAck {
		e.logger.Warn("illegal state: received suback for packet with unexpected state",
			slog.Int("pid", int(matched.pid)))
		e.sweepDone()
		return nil
	}

	matched.state = stateDone

	code := uint8(packets.SubackFailure)
	if len(suback.ReturnCodes) > 0 {
		code = suback.ReturnCodes[0]
	}

	if code != packets.SubackFailure {
		grantedQoS := mqttcore.QoS(code & 0x03)

		if matched.initial {
			if done := e.onInitialSuback(matched.pid); done {
				events = append(events, mqttcore.InitialSubscribesDoneEvent{})
			}
		}

		events = append(events, mqttcore.SubscribeResultEvent{ID: matched.externalID, QoS: grantedQoS})
	} else {
		events = append(events, mqttcore.SubscribeResultEvent{ID: matched.externalID, Err: mqttcore.ErrSubscribeOrUnsubscribeFailed})
	}

	e.sweepDone()
	return events
}

// onInitialSuback marks pid acknowledged in the tracker and reports whether
// every initial auto-subscribe has now been acknowledged. Must be called
// with e.mu held.
func (e *Engine) onInitialSuback(pid uint16) bool {
	if _, ok := e.initialSubscriptionPending[pid]; !ok {
		e.logger.Error("onInitialSuback: pid not in initialSubscriptionPending", slog.Int("pid", int(pid)))
		return false
	}
	e.initialSubscriptionPending[pid] = true

	for _, acked := range e.initialSubscriptionPending {
		if !acked {
			return false
		}
	}
	return true
}

// ProcessUnsuback correlates an UNSUBACK with its request and emits the
// resulting event. MQTT 3.1.1 has no failure return codes for UNSUBACK.
func (e *Engine) ProcessUnsuback(unsuback *packets.UnsubackPacket) *mqttcore.Event {
	var matched *request
	e.queue.Operate(func(items []*request) {
		for _, r := range items {
			if r.pid == unsuback.PacketID {
				matched = r
				return
			}
		}
	})

	if matched == nil {
		e.logger.Warn("received unsuback for unknown pid", slog.Int("pid", int(unsuback.PacketID)))
		e.sweepDone()
		return nil
	}

	if matched.kind != kindUnsubscribe || matched.state != stateAwaitAck {
		e.logger.Warn("illegal state: received unsuback for packet with unexpected state",
			slog.Int("pid", int(matched.pid)))
		e.sweepDone()
		return nil
	}

	matched.state = stateDone
	e.sweepDone()

	var event mqttcore.Event = mqttcore.UnsubscribeResultEvent{ID: matched.externalID}
	return &event
}

func (e *Engine) sweepDone() {
	e.queue.Retain(func(r *request) bool {
		return r.state != stateDone
	})
}
