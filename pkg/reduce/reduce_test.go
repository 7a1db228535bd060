package reduce

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/dtnitsch/wordreduce/models"
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
)

var allStrategies = []models.Strategy{
	models.StrategyFlat,
	models.StrategyGrouped,
	models.StrategyPartitioned,
	models.StrategyHypercube,
}

// runReduce publishes parts, one per rank, and runs st on every rank. It
// fails the test if a non-root rank returns a map.
func runReduce(t *testing.T, st Strategy[string, int], parts []map[string]int) (map[string]int, *pgas.World[map[string]int]) {
	t.Helper()
	w, err := pgas.NewWorld(len(parts), pgas.WithCopy(mapreduce.Clone[string, int]))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	results := make([]map[string]int, len(parts))
	err = w.Run(func(c *pgas.Comm[map[string]int]) error {
		if err := c.Put(parts[c.Rank()], c.Rank(), SlotLocal); err != nil {
			return err
		}
		c.Barrier()
		res, err := st.Reduce(c, mapreduce.Sum[string, int]())
		results[c.Rank()] = res
		return err
	})
	if err != nil {
		t.Fatalf("%s: Run() error = %v", st.Name(), err)
	}
	for r := 1; r < len(results); r++ {
		if results[r] != nil {
			t.Errorf("%s: rank %d returned a result, only the root may", st.Name(), r)
		}
	}
	return results[Root], w
}

func newStrategy(t *testing.T, s models.Strategy, topo Topology) Strategy[string, int] {
	t.Helper()
	st, err := New[string, int](s, topo)
	if err != nil {
		t.Fatalf("New(%v, %+v) error = %v", s, topo, err)
	}
	return st
}

func randomParts(seed int64, n, keys int) []map[string]int {
	rng := rand.New(rand.NewSource(seed))
	parts := make([]map[string]int, n)
	for r := range parts {
		parts[r] = make(map[string]int)
		for i := rng.Intn(keys); i > 0; i-- {
			parts[r][fmt.Sprintf("w%d", rng.Intn(keys))] += 1 + rng.Intn(5)
		}
	}
	return parts
}

func TestConcreteScenario_AllStrategies(t *testing.T) {
	parts := []map[string]int{
		{"a": 1, "b": 2},
		{"a": 3},
		{"b": 1, "c": 5},
		{"c": 2},
	}
	want := map[string]int{"a": 4, "b": 3, "c": 7}

	for _, s := range allStrategies {
		t.Run(s.String(), func(t *testing.T) {
			st := newStrategy(t, s, Topology{Ranks: 4, LocalCapacity: 2})
			got, _ := runReduce(t, st, parts)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%s result = %v, want %v", s, got, want)
			}
		})
	}

	if !reflect.DeepEqual(parts[0], map[string]int{"a": 1, "b": 2}) {
		t.Errorf("partial map of rank 0 was mutated: %v", parts[0])
	}
}

func TestCrossStrategyEquivalence(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16} {
		for _, capacity := range []int{1, 2, 4, 32} {
			parts := randomParts(int64(n*100+capacity), n, 40)
			want := mapreduce.Reduce(parts)

			for _, s := range allStrategies {
				topo := Topology{Ranks: n, LocalCapacity: capacity}
				st, err := New[string, int](s, topo)
				if err != nil {
					t.Fatalf("New(%v, %+v) error = %v", s, topo, err)
				}
				got, _ := runReduce(t, st, parts)
				if !reflect.DeepEqual(got, want) {
					t.Errorf("n=%d capacity=%d %s: result differs from sequential reduce", n, capacity, s)
				}
			}
		}
	}
}

func TestSingleRank_NoCommunication(t *testing.T) {
	parts := []map[string]int{{"only": 3, "me": 1}}
	for _, s := range allStrategies {
		t.Run(s.String(), func(t *testing.T) {
			st := newStrategy(t, s, Topology{Ranks: 1, LocalCapacity: 4})
			got, w := runReduce(t, st, parts)
			if !reflect.DeepEqual(got, parts[0]) {
				t.Errorf("result = %v, want %v", got, parts[0])
			}
			stats := w.Stats(0)
			// Publish plus at most one republish into its own slot.
			if stats.Puts > 2 || stats.RemoteGets != 0 || stats.PairBarriers != 0 {
				t.Errorf("stats = %+v, want no remote traffic", stats)
			}
		})
	}
	rounds, err := Schedule(1)
	if err != nil || len(rounds) != 0 {
		t.Errorf("Schedule(1) = %v, %v; want no rounds", rounds, err)
	}
}

func TestFlat_RemoteReadsOnlyAtRoot(t *testing.T) {
	const n = 8
	_, w := runReduce(t, Flat[string, int]{}, randomParts(7, n, 20))

	if got := w.Stats(Root).RemoteGets; got != n-1 {
		t.Errorf("root remote gets = %d, want %d", got, n-1)
	}
	for r := 1; r < n; r++ {
		if got := w.Stats(r).RemoteGets; got != 0 {
			t.Errorf("rank %d remote gets = %d, want 0", r, got)
		}
	}
}

func TestHypercube_Trace(t *testing.T) {
	rounds, err := Schedule(4)
	if err != nil {
		t.Fatalf("Schedule(4) error = %v", err)
	}
	want := []Round{
		{Index: 0, Mask: 0, Transfers: []Transfer{{From: 1, To: 0}, {From: 3, To: 2}}},
		{Index: 1, Mask: 1, Transfers: []Transfer{{From: 2, To: 0}}},
	}
	if !reflect.DeepEqual(rounds, want) {
		t.Errorf("Schedule(4) = %+v, want %+v", rounds, want)
	}
}

func TestHypercube_RoundsAndTransfers(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rounds, err := Schedule(n)
			if err != nil {
				t.Fatalf("Schedule(%d) error = %v", n, err)
			}
			d := 0
			for 1<<d < n {
				d++
			}
			if len(rounds) != d {
				t.Errorf("rounds = %d, want log2(%d) = %d", len(rounds), n, d)
			}
			total := 0
			for i, r := range rounds {
				if want := n >> (i + 1); len(r.Transfers) != want {
					t.Errorf("round %d transfers = %d, want %d", i, len(r.Transfers), want)
				}
				total += len(r.Transfers)
			}
			if total != n-1 {
				t.Errorf("total transfers = %d, want %d", total, n-1)
			}

			_, w := runReduce(t, Hypercube[string, int]{}, randomParts(int64(n), n, 10))
			stats := w.TotalStats()
			// n publishes plus n-1 exchanges.
			if stats.Puts != int64(2*n-1) {
				t.Errorf("puts = %d, want %d", stats.Puts, 2*n-1)
			}
			if stats.PairBarriers != int64(2*(n-1)) {
				t.Errorf("pair barriers = %d, want %d", stats.PairBarriers, 2*(n-1))
			}
		})
	}
}

func TestPartitioned_SizeInvariance(t *testing.T) {
	const n = 12
	parts := randomParts(42, n, 30)
	want := mapreduce.Reduce(parts)

	for _, size := range []int{1, 2, 3, 4, 6, 12, 20} {
		t.Run(fmt.Sprintf("P=%d", size), func(t *testing.T) {
			st := newStrategy(t, models.StrategyPartitioned, Topology{Ranks: n, LocalCapacity: size})
			got, w := runReduce(t, st, parts)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("P=%d result differs from sequential reduce", size)
			}
			leaders := (n + size - 1) / size
			if size >= n {
				leaders = 1
			}
			if got := w.Stats(Root).RemoteGets; got != int64(min(size, n)-1+leaders-1) {
				t.Errorf("root remote gets = %d, want %d", got, min(size, n)-1+leaders-1)
			}
		})
	}
}

func TestPartitioned_Leader(t *testing.T) {
	p := Partitioned[string, int]{PartitionSize: 4}
	tests := []struct{ rank, minID, upper int }{
		{0, 0, 4}, {3, 0, 4}, {4, 4, 8}, {9, 8, 10},
	}
	for _, tc := range tests {
		minID, upper := p.Leader(tc.rank, 10)
		if minID != tc.minID || upper != tc.upper {
			t.Errorf("Leader(%d) = (%d, %d), want (%d, %d)", tc.rank, minID, upper, tc.minID, tc.upper)
		}
	}
}

func TestGrouped_StridesAndCustomPolicy(t *testing.T) {
	const n = 10
	parts := randomParts(3, n, 25)
	st := Grouped[string, int]{Join: func(rank int) bool { return rank < 3 }, Group: "node0"}
	if err := st.Validate(Topology{Ranks: n}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	got, w := runReduce(t, st, parts)
	if !reflect.DeepEqual(got, mapreduce.Reduce(parts)) {
		t.Errorf("grouped result differs from sequential reduce")
	}
	// Member 1 visits ranks 1, 4 and 7; its own slot is a local read.
	if got := w.Stats(1).RemoteGets; got != 2 {
		t.Errorf("member 1 remote gets = %d, want 2", got)
	}
	for r := 3; r < n; r++ {
		if got := w.Stats(r).RemoteGets; got != 0 {
			t.Errorf("non-member %d remote gets = %d, want 0", r, got)
		}
	}
	// One group barrier per member; the global count is the publish
	// barrier plus the sealing barrier on every rank.
	stats := w.TotalStats()
	if stats.GroupBarriers != 3 || stats.Barriers != 2*n {
		t.Errorf("group barriers = %d, barriers = %d; want 3 and %d", stats.GroupBarriers, stats.Barriers, 2*n)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		strategy models.Strategy
		topo     Topology
		want     error
	}{
		{name: "hypercube six ranks", strategy: models.StrategyHypercube, topo: Topology{Ranks: 6}, want: ErrNotPowerOfTwo},
		{name: "hypercube three ranks", strategy: models.StrategyHypercube, topo: Topology{Ranks: 3}, want: ErrNotPowerOfTwo},
		{name: "partition does not tile", strategy: models.StrategyPartitioned, topo: Topology{Ranks: 6, LocalCapacity: 4}, want: ErrCoverage},
		{name: "partition size zero", strategy: models.StrategyPartitioned, topo: Topology{Ranks: 6, LocalCapacity: 0}, want: ErrCoverage},
		{name: "group empty", strategy: models.StrategyGrouped, topo: Topology{Ranks: 4, LocalCapacity: 0}, want: ErrCoverage},
		{name: "no ranks", strategy: models.StrategyFlat, topo: Topology{Ranks: 0}, want: ErrInvalidTopology},
		{name: "unknown", strategy: models.Strategy(99), topo: Topology{Ranks: 2}, want: ErrUnknownStrategy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[string, int](tc.strategy, tc.topo)
			if !errors.Is(err, tc.want) {
				t.Errorf("New() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestGrouped_RejectsPartialCoverage(t *testing.T) {
	policies := map[string]JoinPolicy{
		"odd ranks":     func(rank int) bool { return rank%2 == 1 },
		"without root":  func(rank int) bool { return rank == 1 || rank == 2 },
		"gap in prefix": func(rank int) bool { return rank == 0 || rank == 2 },
	}
	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			err := Grouped[string, int]{Join: policy}.Validate(Topology{Ranks: 4})
			if !errors.Is(err, ErrCoverage) {
				t.Errorf("Validate() error = %v, want ErrCoverage", err)
			}
		})
	}
}

func TestReduce_RejectsUncheckedStrategyOnEveryRank(t *testing.T) {
	tests := []struct {
		name  string
		st    Strategy[string, int]
		ranks int
		want  error
	}{
		{name: "hypercube three ranks", st: Hypercube[string, int]{}, ranks: 3, want: ErrNotPowerOfTwo},
		{name: "hypercube six ranks", st: Hypercube[string, int]{}, ranks: 6, want: ErrNotPowerOfTwo},
		{name: "partitioned zero value", st: Partitioned[string, int]{}, ranks: 2, want: ErrCoverage},
		{name: "partition does not tile", st: Partitioned[string, int]{PartitionSize: 4}, ranks: 6, want: ErrCoverage},
		{name: "grouped zero value", st: Grouped[string, int]{}, ranks: 2, want: ErrCoverage},
		{name: "grouped odd ranks", st: Grouped[string, int]{Join: func(rank int) bool { return rank%2 == 1 }}, ranks: 4, want: ErrCoverage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, err := pgas.NewWorld(tc.ranks, pgas.WithCopy(mapreduce.Clone[string, int]))
			if err != nil {
				t.Fatalf("NewWorld() error = %v", err)
			}
			errs := make([]error, tc.ranks)
			results := make([]map[string]int, tc.ranks)
			runErr := w.Run(func(c *pgas.Comm[map[string]int]) error {
				if err := c.Put(map[string]int{"a": 1}, c.Rank(), SlotLocal); err != nil {
					return err
				}
				c.Barrier()
				results[c.Rank()], errs[c.Rank()] = tc.st.Reduce(c, mapreduce.Sum[string, int]())
				return nil
			})
			if runErr != nil {
				t.Fatalf("Run() error = %v", runErr)
			}
			for r := range errs {
				if !errors.Is(errs[r], tc.want) {
					t.Errorf("rank %d Reduce() error = %v, want %v", r, errs[r], tc.want)
				}
				if results[r] != nil {
					t.Errorf("rank %d Reduce() = %v, want nil", r, results[r])
				}
			}
			stats := w.TotalStats()
			if stats.Puts != int64(tc.ranks) || stats.RemoteGets != 0 || stats.PairBarriers != 0 || stats.GroupBarriers != 0 {
				t.Errorf("traffic after rejected Reduce = %+v, want only the publishes", stats)
			}
			if stats.Barriers != int64(tc.ranks) {
				t.Errorf("barriers = %d, want only the publish barrier", stats.Barriers)
			}
		})
	}
}
