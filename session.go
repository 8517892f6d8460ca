package mqttcore

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/gonzalop/mqttcore/internal/engine"
	"github.com/gonzalop/mqttcore/internal/packets"
	"github.com/gonzalop/mqttcore/receive"
	"github.com/gonzalop/mqttcore/subscribe"
)

// Session wires the received-publish and subscription engines to a single
// transmit buffer and tick driver, and turns their UniqueID-tagged result
// events back into the Tokens callers submitted requests with. It is the
// single-goroutine coordinator that a transport loop feeds with decoded
// packets and drains for bytes to write, generalizing the shape of the
// logic loop that drove the same job in the client this package grew out
// of.
type Session struct {
	mu     sync.Mutex
	tokens map[UniqueID]*token

	receive   *receive.Engine
	subscribe *subscribe.Engine
	driver    *engine.Driver
	pids      *PIDAllocator

	logger *slog.Logger

	// Events receives InitialSubscribesDoneEvent and PublishResultEvent
	// values that have no Token to complete. It is buffered; a full
	// channel drops the event and logs a warning rather than blocking the
	// dispatch path.
	Events chan Event
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger passed through to both engines.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession constructs a Session with fresh receive and subscribe
// engines, a TransmitBuffer of the given size, and a Driver that ticks at
// interval and hands flushed bytes to flush.
func NewSession(bufferSize int, tickInterval time.Duration, flush func([]byte) error, opts ...SessionOption) *Session {
	s := &Session{
		tokens: make(map[UniqueID]*token),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Events: make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.receive = receive.New(receive.WithLogger(s.logger))
	s.subscribe = subscribe.New(subscribe.WithLogger(s.logger))
	s.pids = NewPIDAllocator(nil)

	buf := engine.NewTransmitBuffer(bufferSize)
	s.driver = engine.NewDriver(buf, tickInterval, flush, s.receive, s.subscribe)

	return s
}

// Run blocks, driving retransmission ticks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	return s.driver.Run(ctx)
}

// Subscribe submits a subscribe request and returns a SubscribeToken that
// completes when the broker's SUBACK is processed. If the request queue is
// full, Subscribe waits for a free slot and, if ctx ends first, returns
// ctx's error and no token. On successful completion the token's QoS method
// reports the broker-granted level.
func (s *Session) Subscribe(ctx context.Context, topic Topic, qos QoS) (SubscribeToken, error) {
	pid := s.pids.Next()
	id, err := s.subscribe.SubmitSubscribe(ctx, topic, qos, pid)
	if err != nil {
		return nil, err
	}
	return s.registerToken(id), nil
}

// Unsubscribe submits an unsubscribe request and returns a Token that
// completes when the broker's UNSUBACK is processed.
func (s *Session) Unsubscribe(ctx context.Context, topic Topic) (Token, error) {
	pid := s.pids.Next()
	id, err := s.subscribe.SubmitUnsubscribe(ctx, topic, pid)
	if err != nil {
		return nil, err
	}
	return s.registerToken(id), nil
}

// SeedAutoSubscribes seeds the subscription engine's queue with the given
// topics at connect time, before the first Tick. See
// subscribe.Engine.AddAutoSubscribes for the eviction and panic behavior.
func (s *Session) SeedAutoSubscribes(autoSubscribes []subscribe.AutoSubscribe) {
	s.subscribe.ResetForNewConnection()
	s.subscribe.AddAutoSubscribes(autoSubscribes, s.pids.Next)
}

// Close tears down the session after the transport disconnects: every
// Token still outstanding is completed with ErrConnectionFailed, the same
// way the logic loop this package grew out of used to fail pending
// operations on shutdown. causes collects any errors encountered during
// teardown itself (e.g. from a caller-supplied final flush) alongside the
// implicit "pending requests were abandoned" condition, so a caller gets
// one aggregated error instead of having to check each step.
func (s *Session) Close(causes ...error) error {
	s.mu.Lock()
	pending := s.tokens
	s.tokens = make(map[UniqueID]*token)
	s.mu.Unlock()

	for _, tok := range pending {
		tok.complete(ErrConnectionFailed)
	}

	var err error
	if len(pending) > 0 {
		err = multierr.Append(err, ErrConnectionFailed)
	}
	for _, cause := range causes {
		err = multierr.Append(err, cause)
	}
	return err
}

func (s *Session) registerToken(id UniqueID) *token {
	tok := newToken()
	s.mu.Lock()
	s.tokens[id] = tok
	s.mu.Unlock()
	return tok
}

// HandleIncoming dispatches one decoded inbound packet to whichever engine
// owns its packet type, delivering application-facing PUBLISH payloads to
// sink and completing/forwarding any resulting Tokens or Events.
func (s *Session) HandleIncoming(ctx context.Context, pkt packets.Packet, sink func(MqttPublish)) error {
	switch p := pkt.(type) {
	case *packets.PublishPacket:
		return s.receive.ProcessPublish(ctx, p, sink)

	case *packets.PubrelPacket:
		s.receive.ProcessPubrel(p.PacketID)

	case *packets.SubackPacket:
		s.dispatch(s.subscribe.ProcessSuback(p))

	case *packets.UnsubackPacket:
		if ev := s.subscribe.ProcessUnsuback(p); ev != nil {
			s.dispatch([]Event{*ev})
		}
	}
	return nil
}

func (s *Session) dispatch(events []Event) {
	for _, ev := range events {
		id, err, qos, ok := resultOf(ev)
		if !ok {
			s.emit(ev)
			continue
		}

		s.mu.Lock()
		tok, found := s.tokens[id]
		if found {
			delete(s.tokens, id)
		}
		s.mu.Unlock()

		if found {
			tok.completeSubscribe(err, qos)
		} else {
			s.logger.Warn("result event for unknown token", slog.Any("event", ev))
		}
	}
}

func (s *Session) emit(ev Event) {
	select {
	case s.Events <- ev:
	default:
		s.logger.Warn("dropping event, Events channel full", slog.Any("event", ev))
	}
}

// resultOf extracts the (ID, Err, QoS) triple from the event types that
// correlate with a Token, if ev is one of them. QoS is only meaningful for
// SubscribeResultEvent; other event kinds return 0.
func resultOf(ev Event) (UniqueID, error, QoS, bool) {
	switch e := ev.(type) {
	case SubscribeResultEvent:
		return e.ID, e.Err, e.QoS, true
	case UnsubscribeResultEvent:
		return e.ID, e.Err, 0, true
	default:
		return 0, nil, 0, false
	}
}
