// Package wordcount runs one distributed word count: every rank counts its
// own input, publishes the partial map and takes part in the configured
// reduction. Rank 0 ends up with the global counts.
package wordcount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/wordreduce/internal/common"
	"github.com/dtnitsch/wordreduce/models"
	"github.com/dtnitsch/wordreduce/pkg/analytics"
	"github.com/dtnitsch/wordreduce/pkg/caching"
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/parser"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
	"github.com/dtnitsch/wordreduce/pkg/reduce"
	"github.com/dtnitsch/wordreduce/pkg/storage"
)

// ErrAborted is returned by ranks that stop because another rank failed
// during the local phase.
var ErrAborted = errors.New("aborted: another rank failed")

// Config describes one run. There is one rank per input.
type Config struct {
	Strategy      models.Strategy
	LocalCapacity int
	Inputs        []string
	Tokenizer     analytics.Tokenizer
	Parser        *parser.Parser
	Logger        *slog.Logger
	// Cache, when set, keeps partial maps keyed by input content.
	Cache *caching.Cache
}

// RankReport is what one rank counted.
type RankReport struct {
	Rank          int
	Input         string
	ContentHash   string
	Language      string
	Tokens        int64
	DistinctWords int
	Cached        bool
	Traffic       pgas.Stats
}

// Report is the outcome of a run as seen by the root.
type Report struct {
	Strategy      models.Strategy
	Ranks         int
	LocalCapacity int
	Counts        map[string]int
	Timings       models.Timings
	PerRank       []RankReport
	Traffic       pgas.Stats
}

// TotalWords is the sum of all counts.
func (r *Report) TotalWords() int64 {
	var total int64
	for _, n := range r.Counts {
		total += int64(n)
	}
	return total
}

// Validate checks the run's topology against the strategy without
// starting any rank.
func Validate(strategy models.Strategy, topo reduce.Topology) error {
	_, err := reduce.New[string, int](strategy, topo)
	return err
}

// Run validates cfg, starts one rank per input and returns once the
// reduction has finished on every rank. ctx is only consulted before the
// ranks start; a started collective runs to completion.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := cfg.Parser
	if p == nil {
		p = &parser.Parser{}
	}

	n := len(cfg.Inputs)
	topo := reduce.Topology{Ranks: n, LocalCapacity: cfg.LocalCapacity}
	strategy, err := reduce.New[string, int](cfg.Strategy, topo)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	world, err := pgas.NewWorld(n, pgas.WithCopy(mapreduce.Clone[string, int]))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Strategy:      cfg.Strategy,
		Ranks:         n,
		LocalCapacity: cfg.LocalCapacity,
		PerRank:       make([]RankReport, n),
	}
	localErrs := make([]error, n)
	merge := mapreduce.Sum[string, int]()

	logger.Info("Starting run", "strategy", strategy.Name(), "ranks", n, "local_capacity", cfg.LocalCapacity)

	err = world.Run(func(c *pgas.Comm[map[string]int]) error {
		rank := c.Rank()
		log := logger.With("rank", rank)

		c.Barrier()
		if rank == reduce.Root {
			report.Timings.LocalStart = time.Now()
		}

		rr, counts, err := countInput(p, cfg.Cache, cfg.Tokenizer, cfg.Inputs[rank])
		if err == nil {
			err = c.Put(counts, rank, reduce.SlotLocal)
		}
		localErrs[rank] = err
		rr.Rank = rank
		report.PerRank[rank] = rr
		if err == nil {
			log.Debug("Local phase complete", "input", rr.Input, "tokens", rr.Tokens, "distinct", rr.DistinctWords, "language", rr.Language, "cached", rr.Cached)
		}
		if rank == reduce.Root {
			report.Timings.ReduceStart = time.Now()
		}

		// Every partial map is published once this trips.
		c.Barrier()
		if err != nil {
			log.Error("Local phase failed", "input", cfg.Inputs[rank], "error", err)
			return err
		}
		for _, e := range localErrs {
			if e != nil {
				return ErrAborted
			}
		}

		result, err := strategy.Reduce(c, merge)
		if err != nil {
			log.Error("Reduction failed", "error", err)
			return err
		}
		if rank == reduce.Root {
			report.Timings.ReduceEnd = time.Now()
			report.Counts = result
		}
		return nil
	})
	if err != nil {
		return nil, firstCause(err)
	}

	for r := range report.PerRank {
		report.PerRank[r].Traffic = world.Stats(r)
	}
	report.Traffic = world.TotalStats()

	logger.Info("Run complete",
		"strategy", strategy.Name(),
		"distinct_words", len(report.Counts),
		"counting", report.Timings.Counting(),
		"reduction", report.Timings.Reduction(),
		"remote_gets", report.Traffic.RemoteGets,
		"puts", report.Traffic.Puts,
	)
	return report, nil
}

// firstCause drops the ErrAborted noise when a real failure is present.
func firstCause(err error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}
	var causes []error
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, ErrAborted) {
			causes = append(causes, e)
		}
	}
	if len(causes) == 0 {
		return err
	}
	return errors.Join(causes...)
}

func countInput(p *parser.Parser, cache *caching.Cache, tok analytics.Tokenizer, path string) (RankReport, map[string]int, error) {
	rr := RankReport{Input: path}
	doc, err := p.Load(path)
	if err != nil {
		return rr, nil, err
	}
	rr.ContentHash = common.ContentHash([]byte(doc.Text))
	rr.Language = doc.Language

	a := &analytics.Analytics{KeepStopwords: doc.Language != "" && doc.Language != "en"}
	key := caching.CountsKey(rr.ContentHash, string(tok), a.KeepStopwords)

	var counts map[string]int
	if cache != nil {
		if data, ok := cache.Get(key); ok {
			// A corrupt entry is recounted and overwritten.
			if cached, err := storage.DecodeCounts(data, models.FormatTSV); err == nil {
				counts = cached
				rr.Cached = true
			}
		}
	}
	if counts == nil {
		counts = mapreduce.Map(doc.Text, a, tok)
		if cache != nil {
			data, err := storage.EncodeCounts(mapreduce.Sorted(counts), models.FormatTSV)
			if err == nil {
				err = cache.Set(key, data)
			}
			if err != nil {
				return rr, nil, fmt.Errorf("error caching counts: %w", err)
			}
		}
	}

	for _, v := range counts {
		rr.Tokens += int64(v)
	}
	rr.DistinctWords = len(counts)
	return rr, counts, nil
}
