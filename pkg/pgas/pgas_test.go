package pgas

import (
	"errors"
	"maps"
	"sync/atomic"
	"testing"
)

func newTestWorld(t *testing.T, n int) *World[map[string]int] {
	t.Helper()
	w, err := NewWorld(n, WithCopy(maps.Clone[map[string]int]))
	if err != nil {
		t.Fatalf("NewWorld(%d) error = %v", n, err)
	}
	return w
}

func TestNewWorld_InvalidSize(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := NewWorld[int](n); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewWorld(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestComm_RankOutOfRange(t *testing.T) {
	w := newTestWorld(t, 2)
	if _, err := w.Comm(2); !errors.Is(err, ErrRankOutOfRange) {
		t.Errorf("Comm(2) error = %v, want ErrRankOutOfRange", err)
	}
	c, err := w.Comm(0)
	if err != nil {
		t.Fatalf("Comm(0) error = %v", err)
	}
	if err := c.Put(nil, -1, "x"); !errors.Is(err, ErrRankOutOfRange) {
		t.Errorf("Put(-1) error = %v, want ErrRankOutOfRange", err)
	}
	if _, err := c.GetFrom(5, "x"); !errors.Is(err, ErrRankOutOfRange) {
		t.Errorf("GetFrom(5) error = %v, want ErrRankOutOfRange", err)
	}
	if err := c.BarrierWith(0); !errors.Is(err, ErrSelfBarrier) {
		t.Errorf("BarrierWith(self) error = %v, want ErrSelfBarrier", err)
	}
}

func TestGet_EmptySlot(t *testing.T) {
	w := newTestWorld(t, 1)
	c, _ := w.Comm(0)
	if _, err := c.Get("missing"); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Get() error = %v, want ErrSlotEmpty", err)
	}
}

func TestPut_OverwritesAndCopies(t *testing.T) {
	w := newTestWorld(t, 2)
	c0, _ := w.Comm(0)
	c1, _ := w.Comm(1)

	src := map[string]int{"a": 1}
	if err := c0.Put(src, 1, "cell"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	src["a"] = 100

	got, err := c1.Get("cell")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("slot aliased sender map: got a=%d, want 1", got["a"])
	}
	got["a"] = 7
	again, _ := c1.Get("cell")
	if again["a"] != 1 {
		t.Errorf("slot aliased reader map: got a=%d, want 1", again["a"])
	}

	if err := c0.Put(map[string]int{"b": 2}, 1, "cell"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	latest, _ := c0.GetFrom(1, "cell")
	if len(latest) != 1 || latest["b"] != 2 {
		t.Errorf("slot not overwritten: got %v", latest)
	}

	if s := w.Stats(0); s.Puts != 2 || s.RemoteGets != 1 {
		t.Errorf("rank 0 stats = %+v, want 2 puts and 1 remote get", s)
	}
	if s := w.Stats(1); s.LocalGets != 2 || s.RemoteGets != 0 {
		t.Errorf("rank 1 stats = %+v, want 2 local gets", s)
	}
}

func TestBarrier_PublishThenRead(t *testing.T) {
	const n = 8
	w := newTestWorld(t, n)

	var sum atomic.Int64
	err := w.Run(func(c *Comm[map[string]int]) error {
		for round := 0; round < 3; round++ {
			if err := c.Put(map[string]int{"r": c.Rank() + round}, c.Rank(), "pub"); err != nil {
				return err
			}
			c.Barrier()
			next := (c.Rank() + 1) % n
			v, err := c.GetFrom(next, "pub")
			if err != nil {
				return err
			}
			if v["r"] != next+round {
				t.Errorf("round %d rank %d read %d from %d, want %d", round, c.Rank(), v["r"], next, next+round)
			}
			sum.Add(int64(v["r"]))
			c.Barrier()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// sum over rounds of (0+..+7) + 8*round
	if want := int64(3*28 + 8*(0+1+2)); sum.Load() != want {
		t.Errorf("sum = %d, want %d", sum.Load(), want)
	}
}

func TestBarrierWith_Pairs(t *testing.T) {
	w := newTestWorld(t, 4)
	err := w.Run(func(c *Comm[map[string]int]) error {
		peer := c.Rank() ^ 1
		if c.Rank()&1 == 1 {
			if err := c.Put(map[string]int{"from": c.Rank()}, peer, "x"); err != nil {
				return err
			}
			return c.BarrierWith(peer)
		}
		if err := c.BarrierWith(peer); err != nil {
			return err
		}
		v, err := c.Get("x")
		if err != nil {
			return err
		}
		if v["from"] != peer {
			t.Errorf("rank %d got value from %d, want %d", c.Rank(), v["from"], peer)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := w.TotalStats().PairBarriers; got != 4 {
		t.Errorf("pair barriers = %d, want 4", got)
	}
}

func TestGroup_SealedAtBarrier(t *testing.T) {
	w := newTestWorld(t, 6)
	err := w.Run(func(c *Comm[map[string]int]) error {
		var g *Group[map[string]int]
		if c.Rank()%2 == 0 {
			var err error
			if g, err = c.Join("even"); err != nil {
				return err
			}
			if _, err := g.Size(); !errors.Is(err, ErrGroupNotSealed) {
				t.Errorf("Size() before seal error = %v, want ErrGroupNotSealed", err)
			}
		}
		c.Barrier()
		if g == nil {
			if _, err := c.Join("even"); !errors.Is(err, ErrGroupSealed) {
				t.Errorf("late Join() error = %v, want ErrGroupSealed", err)
			}
			return nil
		}
		size, err := g.Size()
		if err != nil {
			return err
		}
		id, err := g.MyID()
		if err != nil {
			return err
		}
		if size != 3 || id != c.Rank()/2 {
			t.Errorf("rank %d: size=%d id=%d, want 3 and %d", c.Rank(), size, id, c.Rank()/2)
		}
		members, _ := g.Members()
		if len(members) != 3 || members[0] != 0 || members[1] != 2 || members[2] != 4 {
			t.Errorf("Members() = %v, want [0 2 4]", members)
		}
		return g.Barrier()
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for r := 0; r < 6; r++ {
		st := w.Stats(r)
		want := int64(0)
		if r%2 == 0 {
			want = 1
		}
		if st.Barriers != 1 || st.GroupBarriers != want {
			t.Errorf("rank %d barriers = %d, group barriers = %d; want 1 and %d", r, st.Barriers, st.GroupBarriers, want)
		}
	}
	if got := w.TotalStats().GroupBarriers; got != 3 {
		t.Errorf("total group barriers = %d, want 3", got)
	}
}

func TestRun_CollectsErrors(t *testing.T) {
	w := newTestWorld(t, 3)
	err := w.Run(func(c *Comm[map[string]int]) error {
		_, err := c.Get("never-written")
		return err
	})
	if !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Run() error = %v, want ErrSlotEmpty", err)
	}
}
