package camera

import "sync"

// pool hands out a fixed set of buffer slots. Once every slot is
// leased, acquisition fails until a frame comes back: the same
// discipline as a capture driver with a fixed framebuffer count.
type pool struct {
	mu     sync.Mutex
	leased []bool
	free   []int
}

func newPool(n int) *pool {
	if n < 1 {
		n = 1
	}
	p := &pool{
		leased: make([]bool, n),
		free:   make([]int, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

func (p *pool) size() int {
	return len(p.leased)
}

// acquire leases a free slot.
func (p *pool) acquire() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return 0, false
	}
	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.leased[slot] = true
	return slot, true
}

// release returns a slot to the pool. Reports false for slots that are
// out of range or not currently leased.
func (p *pool) release(slot int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slot < 0 || slot >= len(p.leased) || !p.leased[slot] {
		return false
	}
	p.leased[slot] = false
	p.free = append(p.free, slot)
	return true
}

// inFlight returns the number of leased slots.
func (p *pool) inFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leased) - len(p.free)
}
