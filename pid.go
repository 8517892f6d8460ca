package mqttcore

import "sync"

// PIDAllocator hands out MQTT packet identifiers, cycling through the
// 1-65535 range and skipping whatever the caller reports as still in use.
// It is the one piece of session-wide state the subscription and publish
// paths must share, since a PID collision between two concurrently
// in-flight requests would misroute the broker's acknowledgment.
type PIDAllocator struct {
	mu    sync.Mutex
	next  uint16
	inUse func(uint16) bool
}

// NewPIDAllocator returns an allocator that treats inUse(pid) == true as a
// reason to skip that PID. inUse may be called with the allocator's
// internal lock held; it must not call back into the allocator.
func NewPIDAllocator(inUse func(uint16) bool) *PIDAllocator {
	return &PIDAllocator{inUse: inUse}
}

// Next returns the next unused packet identifier. If every one of the
// 65535 possible values is reported in use, Next gives up its search and
// returns the next value in sequence anyway: that can only happen with far
// more concurrent requests than this engine's bounded queues ever allow.
func (a *PIDAllocator) Next() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()

	for range 65535 {
		a.next++
		if a.next == 0 {
			a.next = 1
		}
		if a.inUse == nil || !a.inUse(a.next) {
			return a.next
		}
	}
	return a.next
}
