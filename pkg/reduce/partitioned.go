package reduce

import (
	"fmt"

	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

// Partitioned is the local-first gather. Ranks are cut into partitions of
// PartitionSize; each partition leader gathers its range, then the root
// gathers the leaders.
type Partitioned[K comparable, V any] struct {
	PartitionSize int
}

func (Partitioned[K, V]) Name() string {
	return "partitioned"
}

// Validate requires PartitionSize >= 1 and, when it is smaller than the
// rank count, an even tiling of [0, ranks).
func (p Partitioned[K, V]) Validate(t Topology) error {
	if err := t.check(); err != nil {
		return err
	}
	if p.PartitionSize < 1 {
		return fmt.Errorf("%w: partition size must be at least 1, got %d", ErrCoverage, p.PartitionSize)
	}
	if p.PartitionSize < t.Ranks && t.Ranks%p.PartitionSize != 0 {
		return fmt.Errorf("%w: partition size %d does not tile %d ranks", ErrCoverage, p.PartitionSize, t.Ranks)
	}
	return nil
}

// Leader returns the first rank of rank's partition and the partition's
// exclusive upper bound.
func (p Partitioned[K, V]) Leader(rank, ranks int) (minID, upper int) {
	minID = rank / p.PartitionSize * p.PartitionSize
	return minID, min(minID+p.PartitionSize, ranks)
}

func (p Partitioned[K, V]) Reduce(c *pgas.Comm[map[K]V], merge mapreduce.MergeFunc[K, V]) (map[K]V, error) {
	n := c.Size()
	if err := p.Validate(Topology{Ranks: n}); err != nil {
		return nil, err
	}
	minID, upper := p.Leader(c.Rank(), n)

	var leaderErr error
	if c.Rank() == minID {
		acc := make(map[K]V)
		leaderErr = gather(c, acc, merge, SlotLocal, minID, upper, 1)
		if leaderErr == nil {
			leaderErr = c.Put(acc, c.Rank(), SlotPartial)
		}
	}
	c.Barrier()
	if leaderErr != nil {
		return nil, leaderErr
	}

	if c.Rank() != Root {
		return nil, nil
	}
	result := make(map[K]V)
	if err := gather(c, result, merge, SlotPartial, 0, n, p.PartitionSize); err != nil {
		return nil, err
	}
	return result, nil
}
