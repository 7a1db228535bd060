package run

import (
	"fmt"

	"github.com/dtnitsch/wordreduce/models"
	"github.com/dtnitsch/wordreduce/pkg/analytics"
	"github.com/dtnitsch/wordreduce/pkg/caching"
	"github.com/dtnitsch/wordreduce/pkg/db"
	"github.com/dtnitsch/wordreduce/pkg/manifest"
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/parser"
	"github.com/dtnitsch/wordreduce/pkg/reduce"
	"github.com/dtnitsch/wordreduce/pkg/storage"
	"github.com/dtnitsch/wordreduce/pkg/wordcount"
	"github.com/urfave/cli/v2"
)

func RunAction(c *cli.Context) error {
	logger := NewLogger(c)

	cfg, err := ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit(err.Error(), 2)
	}
	tok, err := analytics.ParseTokenizer(cfg.Tokenizer)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var cache *caching.Cache
	if dir := c.String("cache-dir"); dir != "" {
		cache, err = caching.NewCache(dir, c.Duration("cache-ttl"))
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	report, err := wordcount.Run(c.Context, wordcount.Config{
		Strategy:      cfg.Strategy,
		LocalCapacity: cfg.LocalCapacity,
		Inputs:        cfg.Inputs,
		Tokenizer:     tok,
		Parser:        &parser.Parser{Encoding: cfg.Encoding, DetectLanguage: cfg.DetectLanguage},
		Logger:        logger,
		Cache:         cache,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Println(models.ReportHeader)
	fmt.Println(report.Timings.ReportLine(report.Ranks))

	if cfg.Top > 0 && !c.Bool("quiet") {
		fmt.Printf("\nTop %d words (%d distinct, %d total):\n", cfg.Top, len(report.Counts), report.TotalWords())
		mapreduce.PrintTopKeywords(report.Counts, cfg.Top)
	}

	if cfg.Output != "" {
		s := &storage.Storage{}
		if err := s.WriteCounts(cfg.Output, cfg.Format, report.Counts); err != nil {
			return fmt.Errorf("failed to write counts: %w", err)
		}
		logger.Info("Wrote counts", "path", cfg.Output, "format", cfg.Format, "distinct_words", len(report.Counts))

		if !c.Bool("no-manifest") {
			manifestPath := manifest.Path(cfg.Output)
			if err := manifest.Write(manifestPath, report, s); err != nil {
				return err
			}
			logger.Debug("Wrote manifest", "path", manifestPath)
		}
	}

	if cfg.History {
		runID, err := recordHistory(c.String("db"), cfg, report)
		if err != nil {
			// History failures do not fail the run.
			logger.Warn("failed to record run history", "error", err)
		} else {
			logger.Info("Recorded run", "run_id", runID)
		}
	}
	return nil
}

// ValidateAction checks a configuration against its strategy without
// reading any input.
func ValidateAction(c *cli.Context) error {
	logger := NewLogger(c)

	cfg, err := ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit(err.Error(), 2)
	}
	topo := reduce.Topology{Ranks: cfg.Ranks, LocalCapacity: cfg.LocalCapacity}
	if err := wordcount.Validate(cfg.Strategy, topo); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	fmt.Printf("OK: strategy=%s ranks=%d local_capacity=%d\n", cfg.Strategy, cfg.Ranks, cfg.LocalCapacity)
	return nil
}

func recordHistory(dbPath string, cfg *models.RunConfig, report *wordcount.Report) (int64, error) {
	var database *db.DB
	var err error
	if dbPath != "" {
		database, err = db.OpenPath(dbPath)
	} else {
		database, err = db.Open()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	run, ranks, keywords := HistoryRecord(cfg, report)
	return database.InsertRun(run, ranks, keywords)
}

// HistoryRecord converts a finished run into its database rows.
func HistoryRecord(cfg *models.RunConfig, report *wordcount.Report) (*db.Run, []db.RankInput, []db.Keyword) {
	run := &db.Run{
		Strategy:      report.Strategy.String(),
		Ranks:         report.Ranks,
		LocalCapacity: report.LocalCapacity,
		Tokenizer:     cfg.Tokenizer,
		Counting:      report.Timings.Counting(),
		Reduction:     report.Timings.Reduction(),
		Total:         report.Timings.Total(),
		DistinctWords: len(report.Counts),
		TotalWords:    report.TotalWords(),
		OutputPath:    cfg.Output,
	}

	ranks := make([]db.RankInput, len(report.PerRank))
	for i, r := range report.PerRank {
		ranks[i] = db.RankInput{
			Rank:          r.Rank,
			InputPath:     r.Input,
			ContentHash:   r.ContentHash,
			Language:      r.Language,
			Tokens:        r.Tokens,
			DistinctWords: r.DistinctWords,
		}
	}

	top := mapreduce.Top(report.Counts, cfg.Top)
	keywords := make([]db.Keyword, len(top))
	for i, p := range top {
		keywords[i] = db.Keyword{Word: p.Key, Count: int64(p.Value)}
	}
	return run, ranks, keywords
}
