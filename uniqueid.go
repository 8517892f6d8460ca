package mqttcore

import "go.uber.org/atomic"

// UniqueID is an opaque handle returned to the user at submission time and
// echoed back in the corresponding result event. It carries no meaning
// beyond equality.
type UniqueID uint64

var uniqueIDCounter atomic.Uint64

// NewUniqueID returns the next UniqueID in a process-wide monotonically
// increasing sequence.
func NewUniqueID() UniqueID {
	return UniqueID(uniqueIDCounter.Inc())
}
