package reduce

import (
	"fmt"

	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

// DefaultGroupName is the group Grouped members join.
const DefaultGroupName = "local"

// JoinPolicy reports whether rank volunteers for the group.
type JoinPolicy func(rank int) bool

// CapacityPolicy volunteers the first capacity ranks, the ones sharing
// rank 0's node.
func CapacityPolicy(capacity int) JoinPolicy {
	return func(rank int) bool {
		return rank < capacity
	}
}

// Grouped is the hierarchical gather. Volunteers form a group; member m of
// g gathers ranks m, m+g, m+2g, ... and republishes its accumulator, then
// the root gathers the g member accumulators.
type Grouped[K comparable, V any] struct {
	Join  JoinPolicy
	Group string
}

func (Grouped[K, V]) Name() string {
	return "grouped"
}

func (g Grouped[K, V]) groupName() string {
	if g.Group == "" {
		return DefaultGroupName
	}
	return g.Group
}

// Validate requires the volunteers to be exactly ranks [0, g) for some
// g >= 1. Then local ids equal global ranks and the member strides cover
// every rank exactly once. Anything else would silently drop ranks.
func (g Grouped[K, V]) Validate(t Topology) error {
	if err := t.check(); err != nil {
		return err
	}
	if g.Join == nil {
		return fmt.Errorf("%w: no join policy", ErrCoverage)
	}
	size := 0
	for r := 0; r < t.Ranks; r++ {
		if g.Join(r) {
			size++
		}
	}
	if size == 0 {
		return fmt.Errorf("%w: no rank joins the group", ErrCoverage)
	}
	for r := 0; r < t.Ranks; r++ {
		if g.Join(r) != (r < size) {
			return fmt.Errorf("%w: group of %d must be ranks [0, %d), rank %d disagrees", ErrCoverage, size, size, r)
		}
	}
	return nil
}

func (g Grouped[K, V]) Reduce(c *pgas.Comm[map[K]V], merge mapreduce.MergeFunc[K, V]) (map[K]V, error) {
	// The policy is a pure function of rank, so every rank agrees.
	if err := g.Validate(Topology{Ranks: c.Size()}); err != nil {
		return nil, err
	}
	var grp *pgas.Group[map[K]V]
	var joinErr error
	if g.Join(c.Rank()) {
		grp, joinErr = c.Join(g.groupName())
	}
	// Seals membership. Every rank takes part, members or not.
	c.Barrier()
	if joinErr != nil {
		return nil, joinErr
	}
	if grp == nil {
		return nil, nil
	}

	size, err := grp.Size()
	if err != nil {
		return nil, err
	}
	id, err := grp.MyID()
	if err != nil {
		return nil, err
	}
	members, err := grp.Members()
	if err != nil {
		return nil, err
	}

	acc := make(map[K]V)
	if err := gather(c, acc, merge, SlotLocal, id, c.Size(), size); err != nil {
		return nil, err
	}
	if err := c.Put(acc, c.Rank(), SlotPartial); err != nil {
		return nil, err
	}
	if err := grp.Barrier(); err != nil {
		return nil, err
	}

	if c.Rank() != Root {
		return nil, nil
	}
	result := make(map[K]V)
	for _, m := range members {
		part, err := c.GetFrom(m, SlotPartial)
		if err != nil {
			return nil, fmt.Errorf("gather %s from member %d: %w", SlotPartial, m, err)
		}
		merge(result, part)
	}
	return result, nil
}
