package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Ticker is implemented by C3 and C4: each drains its queue into w on every
// tick.
type Ticker interface {
	Tick(w *TransmitBuffer) error
}

// Driver runs a periodic tick across a set of Tickers until its context is
// cancelled, mirroring the teacher's single retryTicker-driven logicLoop
// but generalized to however many engines are registered and supervised by
// an errgroup so an erroring tick brings the whole driver down cleanly
// instead of leaking a goroutine. A panic in a tick is not recovered.
type Driver struct {
	tickers  []Ticker
	buffer   *TransmitBuffer
	interval time.Duration
	flush    func([]byte) error
}

// NewDriver returns a Driver that ticks every interval, draining each
// ticker in registration order into buffer and flushing the result via
// flush after each round.
func NewDriver(buffer *TransmitBuffer, interval time.Duration, flush func([]byte) error, tickers ...Ticker) *Driver {
	return &Driver{tickers: tickers, buffer: buffer, interval: interval, flush: flush}
}

// Run blocks, ticking until ctx is cancelled or a Tick/flush call returns an
// error, in which case Run returns that error.
func (d *Driver) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := d.tick(); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}

func (d *Driver) tick() error {
	for _, t := range d.tickers {
		if err := t.Tick(d.buffer); err != nil {
			return err
		}
	}

	if d.buffer.RemainingCapacity() < d.buffer.capacity && d.flush != nil {
		if err := d.flush(d.buffer.Bytes()); err != nil {
			return err
		}
		d.buffer.Reset()
	}

	return nil
}
