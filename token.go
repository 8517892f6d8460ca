package mqttcore

import (
	"context"
	"sync"
)

// Token represents an asynchronous subscribe/unsubscribe operation that can
// be waited on.
//
// Example (blocking wait):
//
//	tok, err := session.Subscribe(ctx, topic, mqttcore.AtLeastOnce)
//	if err != nil {
//	    return err
//	}
//	if err := tok.Wait(context.Background()); err != nil {
//	    log.Printf("subscribe failed: %v", err)
//	}
//
// Example (non-blocking with select):
//
//	select {
//	case <-tok.Done():
//	    err := tok.Error()
//	case <-time.After(5 * time.Second):
//	}
type Token interface {
	// Wait blocks until the operation completes or ctx is cancelled.
	Wait(ctx context.Context) error

	// Done returns a channel that closes when the operation completes.
	Done() <-chan struct{}

	// Error returns the completed operation's error, or nil.
	Error() error
}

// SubscribeToken is the Token returned by Session.Subscribe. In addition to
// the base Token behavior, QoS reports the broker-granted QoS level once
// the token has completed successfully; it is meaningless (0) before
// completion or after a failed completion.
type SubscribeToken interface {
	Token
	QoS() QoS
}

type token struct {
	done chan struct{}
	err  error
	qos  QoS
	once sync.Once
}

func newToken() *token {
	return &token{done: make(chan struct{})}
}

func (t *token) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *token) Done() <-chan struct{} {
	return t.done
}

func (t *token) Error() error {
	return t.err
}

// QoS returns the broker-granted QoS level recorded by completeSubscribe,
// or 0 if the token was never completed via completeSubscribe.
func (t *token) QoS() QoS {
	return t.qos
}

// complete marks the token resolved with err. Only the first call has any
// effect.
func (t *token) complete(err error) {
	t.completeSubscribe(err, 0)
}

// completeSubscribe marks the token resolved with err and, on success,
// the broker-granted qos. Only the first call (whether complete or
// completeSubscribe) has any effect.
func (t *token) completeSubscribe(err error, qos QoS) {
	t.once.Do(func() {
		t.err = err
		t.qos = qos
		close(t.done)
	})
}
