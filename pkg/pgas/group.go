package pgas

import (
	"fmt"
	"sort"
)

type groupState struct {
	name    string
	pending map[int]struct{}
	sealed  bool
	members []int
	index   map[int]int
	barrier *barrier
}

// Group is a rank's handle on a group it joined. Members get dense local
// ids ordered by global rank and a barrier that only members take part in.
type Group[T any] struct {
	comm  *Comm[T]
	state *groupState
}

// Join asks for membership in the named group. Membership is voluntary and
// becomes fixed when the next global barrier trips; until then Size, MyID,
// Members and Barrier report ErrGroupNotSealed. Joining a sealed group the
// caller is not part of fails with ErrGroupSealed.
func (c *Comm[T]) Join(name string) (*Group[T], error) {
	w := c.w
	w.mu.Lock()
	defer w.mu.Unlock()

	gs, ok := w.groups[name]
	if !ok {
		gs = &groupState{name: name, pending: make(map[int]struct{})}
		w.groups[name] = gs
	}
	if gs.sealed {
		if _, member := gs.index[c.rank]; !member {
			return nil, fmt.Errorf("%w: %q", ErrGroupSealed, name)
		}
	} else {
		gs.pending[c.rank] = struct{}{}
	}
	return &Group[T]{comm: c, state: gs}, nil
}

// sealGroups runs inside the global barrier, after every rank arrived.
func (w *World[T]) sealGroups() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, gs := range w.groups {
		if gs.sealed || len(gs.pending) == 0 {
			continue
		}
		gs.members = make([]int, 0, len(gs.pending))
		for r := range gs.pending {
			gs.members = append(gs.members, r)
		}
		sort.Ints(gs.members)
		gs.index = make(map[int]int, len(gs.members))
		for id, r := range gs.members {
			gs.index[r] = id
		}
		gs.barrier = newBarrier(len(gs.members), nil)
		gs.pending = nil
		gs.sealed = true
	}
}

func (g *Group[T]) sealedState() (*groupState, error) {
	w := g.comm.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if !g.state.sealed {
		return nil, fmt.Errorf("%w: %q", ErrGroupNotSealed, g.state.name)
	}
	return g.state, nil
}

// Name returns the group name.
func (g *Group[T]) Name() string {
	return g.state.name
}

// Size returns the number of members.
func (g *Group[T]) Size() (int, error) {
	gs, err := g.sealedState()
	if err != nil {
		return 0, err
	}
	return len(gs.members), nil
}

// MyID returns the caller's local id within the group.
func (g *Group[T]) MyID() (int, error) {
	gs, err := g.sealedState()
	if err != nil {
		return 0, err
	}
	return gs.index[g.comm.rank], nil
}

// Members returns the global ranks of the members, indexed by local id.
func (g *Group[T]) Members() ([]int, error) {
	gs, err := g.sealedState()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(gs.members))
	copy(out, gs.members)
	return out, nil
}

// Barrier blocks until every member has called it.
func (g *Group[T]) Barrier() error {
	gs, err := g.sealedState()
	if err != nil {
		return err
	}
	g.comm.w.stats[g.comm.rank].groupBarriers.Add(1)
	gs.barrier.await()
	return nil
}
