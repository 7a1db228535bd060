package reduce

import (
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

// Flat has the root read every rank's partial map in turn. N-1 remote
// reads, all serialized at the root.
type Flat[K comparable, V any] struct{}

func (Flat[K, V]) Name() string {
	return "flat"
}

func (Flat[K, V]) Validate(t Topology) error {
	return t.check()
}

func (Flat[K, V]) Reduce(c *pgas.Comm[map[K]V], merge mapreduce.MergeFunc[K, V]) (map[K]V, error) {
	if c.Rank() != Root {
		return nil, nil
	}
	acc := make(map[K]V)
	if err := gather(c, acc, merge, SlotLocal, 0, c.Size(), 1); err != nil {
		return nil, err
	}
	return acc, nil
}
