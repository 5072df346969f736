package frame

import "sync"

// Pool is a freelist of reusable frame buffers. It is the only state the
// producer and consumer threads share for recycling, so both Acquire and
// Release take the pool lock and nothing else.
type Pool struct {
	mu   sync.Mutex
	free []*Buffer
}

// NewPool seeds a pool with n buffers pre-sized for desc.
func NewPool(n int, desc Descriptor) *Pool {
	p := &Pool{free: make([]*Buffer, 0, n)}
	for i := 0; i < n; i++ {
		p.free = append(p.free, NewBuffer(desc))
	}
	return p
}

// Acquire pops a buffer from the freelist. It never blocks and never
// allocates: when the pool is empty the caller is expected to drop the
// incoming raw frame instead.
func (p *Pool) Acquire() (*Buffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, false
	}
	b := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return b, true
}

// Release returns a buffer to the freelist.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}

// Idle reports how many buffers are currently pooled.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
