package frame

import "time"

// DefaultQueueCapacity bounds the producer→consumer handoff. Three frames
// keeps worst-case latency at a few frame periods while still absorbing
// short consumer stalls.
const DefaultQueueCapacity = 3

// Queue is a fixed-capacity FIFO handing filled buffers from the producer
// thread to the consumer thread. Its length never exceeds the capacity it
// was created with.
type Queue struct {
	ch chan *Buffer
}

// NewQueue creates a queue of the given capacity; capacity <= 0 falls back
// to DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan *Buffer, capacity)}
}

// Push inserts a filled buffer without ever blocking the producer. It
// returns false when the queue is full; the caller must then return the
// buffer to the pool. Bounded memory and latency win over guaranteed
// delivery here.
func (q *Queue) Push(b *Buffer) bool {
	select {
	case q.ch <- b:
		return true
	default:
		return false
	}
}

// PopTimeout waits up to d for the oldest queued buffer. The false return
// means "no data yet", which is pacing, not an error.
func (q *Queue) PopTimeout(d time.Duration) (*Buffer, bool) {
	select {
	case b := <-q.ch:
		return b, true
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case b := <-q.ch:
		return b, true
	case <-timer.C:
		return nil, false
	}
}

// Len reports the number of queued buffers.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Drain empties the queue and returns whatever was still in flight. Only
// called during teardown, after the producer has stopped.
func (q *Queue) Drain() []*Buffer {
	var out []*Buffer
	for {
		select {
		case b := <-q.ch:
			out = append(out, b)
		default:
			return out
		}
	}
}
