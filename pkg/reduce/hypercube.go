package reduce

import (
	"fmt"
	"math/bits"

	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

// Hypercube is the butterfly reduce. In round i every still-active rank
// with bit i set sends its accumulator to the partner with bit i clear.
// After log2(N) rounds only the root holds the full result.
type Hypercube[K comparable, V any] struct{}

func (Hypercube[K, V]) Name() string {
	return "hypercube"
}

func (Hypercube[K, V]) Validate(t Topology) error {
	if err := t.check(); err != nil {
		return err
	}
	if t.Ranks&(t.Ranks-1) != 0 {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, t.Ranks)
	}
	return nil
}

// Transfer is one pairwise send.
type Transfer struct {
	From int
	To   int
}

// Round lists the transfers of one hypercube round.
type Round struct {
	Index     int
	Mask      int
	Transfers []Transfer
}

type role int

const (
	idle role = iota
	sender
	receiver
)

// roleIn returns what rank does in round i under mask, and its partner.
func roleIn(rank, i, mask int) (role, int) {
	if rank&mask != 0 {
		return idle, -1
	}
	bit := 1 << i
	partner := rank ^ bit
	if rank&bit != 0 {
		return sender, partner
	}
	return receiver, partner
}

// Schedule returns the rounds a hypercube reduce over n ranks performs.
func Schedule(n int) ([]Round, error) {
	if err := (Hypercube[string, int]{}).Validate(Topology{Ranks: n}); err != nil {
		return nil, err
	}
	d := bits.TrailingZeros(uint(n))
	rounds := make([]Round, 0, d)
	mask := 0
	for i := 0; i < d; i++ {
		r := Round{Index: i, Mask: mask}
		for rank := 0; rank < n; rank++ {
			if ro, partner := roleIn(rank, i, mask); ro == sender {
				r.Transfers = append(r.Transfers, Transfer{From: rank, To: partner})
			}
		}
		rounds = append(rounds, r)
		mask ^= 1 << i
	}
	return rounds, nil
}

func (h Hypercube[K, V]) Reduce(c *pgas.Comm[map[K]V], merge mapreduce.MergeFunc[K, V]) (map[K]V, error) {
	// Every rank sees the same size, so all of them fail here together.
	if err := h.Validate(Topology{Ranks: c.Size()}); err != nil {
		return nil, err
	}
	own, err := c.Get(SlotLocal)
	if err != nil {
		return nil, err
	}
	acc := mapreduce.Clone(own)
	d := bits.TrailingZeros(uint(c.Size()))
	rank := c.Rank()

	c.Barrier()
	mask := 0
	for i := 0; i < d; i++ {
		switch ro, partner := roleIn(rank, i, mask); ro {
		case sender:
			if err := c.Put(acc, partner, SlotExchange); err != nil {
				return nil, err
			}
			if err := c.BarrierWith(partner); err != nil {
				return nil, err
			}
		case receiver:
			if err := c.BarrierWith(partner); err != nil {
				return nil, err
			}
			in, err := c.Get(SlotExchange)
			if err != nil {
				return nil, fmt.Errorf("round %d from rank %d: %w", i, partner, err)
			}
			merge(acc, in)
		}
		mask ^= 1 << i
		c.Barrier()
	}

	if rank != Root {
		return nil, nil
	}
	return acc, nil
}
