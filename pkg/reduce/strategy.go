// Package reduce merges the partial maps of every rank into one map at rank
// 0. Four interchangeable strategies are provided. All of them expect each
// rank to have published its partial map into SlotLocal and to have passed
// one global barrier before Reduce is called.
package reduce

import (
	"errors"
	"fmt"

	"github.com/dtnitsch/wordreduce/models"
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

// Root is the rank that holds the result once a strategy completes.
const Root = 0

// Slots used by the strategies.
const (
	SlotLocal    pgas.Slot = "local"    // published partial map
	SlotPartial  pgas.Slot = "partial"  // republished group or partition accumulator
	SlotExchange pgas.Slot = "exchange" // hypercube receive cell
)

var (
	ErrNotPowerOfTwo   = errors.New("rank count is not a power of two")
	ErrCoverage        = errors.New("configuration does not cover every rank exactly once")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidTopology = errors.New("invalid topology")
)

// Topology is the externally supplied shape of a run.
type Topology struct {
	Ranks         int
	LocalCapacity int
}

func (t Topology) check() error {
	if t.Ranks < 1 {
		return fmt.Errorf("%w: ranks must be at least 1, got %d", ErrInvalidTopology, t.Ranks)
	}
	return nil
}

// Strategy is one reduction algorithm.
//
// Validate rejects topologies the algorithm cannot reduce completely; it
// should be called before any rank starts. Reduce repeats the check on
// every rank before any traffic. Reduce is called by every rank and
// returns the merged map at Root and nil everywhere else.
type Strategy[K comparable, V any] interface {
	Name() string
	Validate(t Topology) error
	Reduce(c *pgas.Comm[map[K]V], merge mapreduce.MergeFunc[K, V]) (map[K]V, error)
}

// New returns the validated strategy s for topology t.
func New[K comparable, V any](s models.Strategy, t Topology) (Strategy[K, V], error) {
	var st Strategy[K, V]
	switch s {
	case models.StrategyFlat:
		st = Flat[K, V]{}
	case models.StrategyGrouped:
		st = Grouped[K, V]{Join: CapacityPolicy(t.LocalCapacity)}
	case models.StrategyPartitioned:
		st = Partitioned[K, V]{PartitionSize: t.LocalCapacity}
	case models.StrategyHypercube:
		st = Hypercube[K, V]{}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
	if err := st.Validate(t); err != nil {
		return nil, fmt.Errorf("%s: %w", st.Name(), err)
	}
	return st, nil
}

// gather reads slot from ranks from, from+step, ... < to and merges each
// value into acc.
func gather[K comparable, V any](c *pgas.Comm[map[K]V], acc map[K]V, merge mapreduce.MergeFunc[K, V], slot pgas.Slot, from, to, step int) error {
	for i := from; i < to; i += step {
		m, err := c.GetFrom(i, slot)
		if err != nil {
			return fmt.Errorf("gather %s from rank %d: %w", slot, i, err)
		}
		merge(acc, m)
	}
	return nil
}
