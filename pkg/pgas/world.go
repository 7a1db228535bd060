// Package pgas is an in-process partitioned global address space for a fixed
// number of ranks. Every rank owns a set of named slots that other ranks can
// write with Put and read with GetFrom. Ordering between writes and reads is
// never implied: callers fence it with the global barrier, a pairwise barrier
// or a group barrier.
package pgas

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Slot names a single-valued storage cell that exists on every rank.
type Slot string

var (
	ErrInvalidSize    = errors.New("pgas: world size must be at least 1")
	ErrRankOutOfRange = errors.New("pgas: rank out of range")
	ErrSlotEmpty      = errors.New("pgas: slot has no value")
	ErrSelfBarrier    = errors.New("pgas: pairwise barrier with self")
	ErrGroupNotSealed = errors.New("pgas: group membership not sealed")
	ErrGroupSealed    = errors.New("pgas: group membership already sealed")
)

// Option configures a World.
type Option[T any] func(*World[T])

// WithCopy installs the function applied to a value when it crosses a rank
// boundary, on Put and on Get. Without it values are shared by reference.
func WithCopy[T any](fn func(T) T) Option[T] {
	return func(w *World[T]) {
		w.copyFn = fn
	}
}

// World holds the shared state of one run: the slots of every rank, the
// global barrier, the pairwise barriers and the groups.
type World[T any] struct {
	size   int
	copyFn func(T) T

	cells  []*cell[T]
	stats  []counters
	global *barrier

	mu     sync.Mutex
	pairs  map[[2]int]*barrier
	groups map[string]*groupState
}

type cell[T any] struct {
	mu    sync.RWMutex
	slots map[Slot]T
}

type counters struct {
	puts          atomic.Int64
	remoteGets    atomic.Int64
	localGets     atomic.Int64
	barriers      atomic.Int64
	pairBarriers  atomic.Int64
	groupBarriers atomic.Int64
}

// Stats is a snapshot of the traffic issued by one rank. Barriers counts
// global barriers only; pairwise and group barriers have their own fields.
type Stats struct {
	Puts          int64
	RemoteGets    int64
	LocalGets     int64
	Barriers      int64
	PairBarriers  int64
	GroupBarriers int64
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Puts:          s.Puts + o.Puts,
		RemoteGets:    s.RemoteGets + o.RemoteGets,
		LocalGets:     s.LocalGets + o.LocalGets,
		Barriers:      s.Barriers + o.Barriers,
		PairBarriers:  s.PairBarriers + o.PairBarriers,
		GroupBarriers: s.GroupBarriers + o.GroupBarriers,
	}
}

// NewWorld creates a world of n ranks.
func NewWorld[T any](n int, opts ...Option[T]) (*World[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}
	w := &World[T]{
		size:   n,
		cells:  make([]*cell[T], n),
		stats:  make([]counters, n),
		pairs:  make(map[[2]int]*barrier),
		groups: make(map[string]*groupState),
	}
	for i := range w.cells {
		w.cells[i] = &cell[T]{slots: make(map[Slot]T)}
	}
	for _, opt := range opts {
		opt(w)
	}
	w.global = newBarrier(n, w.sealGroups)
	return w, nil
}

// Size returns the number of ranks.
func (w *World[T]) Size() int {
	return w.size
}

// Comm returns the handle through which rank communicates.
func (w *World[T]) Comm(rank int) (*Comm[T], error) {
	if err := w.checkRank(rank); err != nil {
		return nil, err
	}
	return &Comm[T]{w: w, rank: rank}, nil
}

// Run starts one goroutine per rank, calls fn with that rank's Comm and
// waits for every rank to return. A rank that returns early while others
// still wait in a barrier leaves them blocked; Run then never returns.
func (w *World[T]) Run(fn func(c *Comm[T]) error) error {
	var wg sync.WaitGroup
	errs := make([]error, w.size)
	wg.Add(w.size)
	for r := 0; r < w.size; r++ {
		go func(c *Comm[T]) {
			defer wg.Done()
			if err := fn(c); err != nil {
				errs[c.rank] = fmt.Errorf("rank %d: %w", c.rank, err)
			}
		}(&Comm[T]{w: w, rank: r})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Stats returns the traffic counters of rank.
func (w *World[T]) Stats(rank int) Stats {
	if w.checkRank(rank) != nil {
		return Stats{}
	}
	c := &w.stats[rank]
	return Stats{
		Puts:          c.puts.Load(),
		RemoteGets:    c.remoteGets.Load(),
		LocalGets:     c.localGets.Load(),
		Barriers:      c.barriers.Load(),
		PairBarriers:  c.pairBarriers.Load(),
		GroupBarriers: c.groupBarriers.Load(),
	}
}

// TotalStats sums Stats over all ranks.
func (w *World[T]) TotalStats() Stats {
	var total Stats
	for r := 0; r < w.size; r++ {
		total = total.Add(w.Stats(r))
	}
	return total
}

func (w *World[T]) checkRank(rank int) error {
	if rank < 0 || rank >= w.size {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrRankOutOfRange, rank, w.size)
	}
	return nil
}

func (w *World[T]) copyOf(v T) T {
	if w.copyFn == nil {
		return v
	}
	return w.copyFn(v)
}

func (w *World[T]) store(rank int, slot Slot, v T) {
	c := w.cells[rank]
	c.mu.Lock()
	c.slots[slot] = w.copyOf(v)
	c.mu.Unlock()
}

func (w *World[T]) load(rank int, slot Slot) (T, error) {
	c := w.cells[rank]
	c.mu.RLock()
	v, ok := c.slots[slot]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: slot %q on rank %d", ErrSlotEmpty, slot, rank)
	}
	return w.copyOf(v), nil
}

func (w *World[T]) pairBarrier(a, b int) *barrier {
	key := [2]int{a, b}
	if b < a {
		key = [2]int{b, a}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	pb, ok := w.pairs[key]
	if !ok {
		pb = newBarrier(2, nil)
		w.pairs[key] = pb
	}
	return pb
}

// Comm is one rank's view of the World.
type Comm[T any] struct {
	w    *World[T]
	rank int
}

// Rank returns the caller's rank.
func (c *Comm[T]) Rank() int {
	return c.rank
}

// Size returns the number of ranks in the world.
func (c *Comm[T]) Size() int {
	return c.w.size
}

// World returns the world this handle belongs to.
func (c *Comm[T]) World() *World[T] {
	return c.w
}

// Put overwrites slot on dest with value. The write is complete when Put
// returns, but dest only observes it after a barrier both sides pass.
func (c *Comm[T]) Put(value T, dest int, slot Slot) error {
	if err := c.w.checkRank(dest); err != nil {
		return err
	}
	c.w.store(dest, slot, value)
	c.w.stats[c.rank].puts.Add(1)
	return nil
}

// Get reads the caller's own slot.
func (c *Comm[T]) Get(slot Slot) (T, error) {
	v, err := c.w.load(c.rank, slot)
	if err == nil {
		c.w.stats[c.rank].localGets.Add(1)
	}
	return v, err
}

// GetFrom reads slot on rank. Reading the caller's own rank is a local get.
func (c *Comm[T]) GetFrom(rank int, slot Slot) (T, error) {
	if rank == c.rank {
		return c.Get(slot)
	}
	if err := c.w.checkRank(rank); err != nil {
		var zero T
		return zero, err
	}
	v, err := c.w.load(rank, slot)
	if err == nil {
		c.w.stats[c.rank].remoteGets.Add(1)
	}
	return v, err
}

// Barrier blocks until every rank of the world has called it. Groups with
// pending joins are sealed when the barrier trips.
func (c *Comm[T]) Barrier() {
	c.w.stats[c.rank].barriers.Add(1)
	c.w.global.await()
}

// BarrierWith blocks until peer calls BarrierWith naming the caller.
func (c *Comm[T]) BarrierWith(peer int) error {
	if err := c.w.checkRank(peer); err != nil {
		return err
	}
	if peer == c.rank {
		return fmt.Errorf("%w: rank %d", ErrSelfBarrier, peer)
	}
	c.w.stats[c.rank].pairBarriers.Add(1)
	c.w.pairBarrier(c.rank, peer).await()
	return nil
}
