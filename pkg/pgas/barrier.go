package pgas

import "sync"

// barrier is a reusable rendezvous for a fixed number of parties. There is
// no timeout: a party that never arrives blocks the others forever.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	arrived int
	gen     uint64
	onTrip  func()
}

func newBarrier(parties int, onTrip func()) *barrier {
	b := &barrier{parties: parties, onTrip: onTrip}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// await returns once parties callers of the current generation arrived.
// The last arriver runs onTrip before anyone is released.
func (b *barrier) await() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.gen
	b.arrived++
	if b.arrived == b.parties {
		if b.onTrip != nil {
			b.onTrip()
		}
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		return
	}
	for gen == b.gen {
		b.cond.Wait()
	}
}
