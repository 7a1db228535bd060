package manifest

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
	"github.com/dtnitsch/wordreduce/pkg/pgas"
	"github.com/dtnitsch/wordreduce/pkg/storage"
	"github.com/dtnitsch/wordreduce/pkg/wordcount"
)

// DefaultKeywords is how many aggregate keywords a manifest lists.
const DefaultKeywords = 25

// Path returns the manifest path that belongs to a counts file.
func Path(outputPath string) string {
	return outputPath + ".manifest.yaml"
}

// Build creates the manifest of a finished run.
func Build(report *wordcount.Report, s *storage.Storage) *RunManifest {
	m := &RunManifest{
		GeneratedAt:       time.Now().Format(time.RFC3339),
		Strategy:          report.Strategy.String(),
		Ranks:             report.Ranks,
		LocalCapacity:     report.LocalCapacity,
		TotalSeconds:      report.Timings.Total().Seconds(),
		CountingSeconds:   report.Timings.Counting().Seconds(),
		ReductionSeconds:  report.Timings.Reduction().Seconds(),
		TotalWords:        report.TotalWords(),
		DistinctWords:     len(report.Counts),
		Traffic:           traffic(report.Traffic),
		AggregateKeywords: mapreduce.TopKeywords(report.Counts, DefaultKeywords),
	}

	for _, r := range report.PerRank {
		summary := RankSummary{
			Rank:          r.Rank,
			Input:         r.Input,
			Language:      r.Language,
			Tokens:        r.Tokens,
			DistinctWords: r.DistinctWords,
			ContentHash:   r.ContentHash,
			Traffic:       traffic(r.Traffic),
		}
		// Size is informational; a vanished input leaves it empty.
		if stats, err := s.GetFileStats(r.Input); err == nil {
			summary.SizeBytes = stats.SizeBytes
		}
		m.Ranked = append(m.Ranked, summary)
	}
	return m
}

// Write builds the manifest for report and saves it to path.
func Write(path string, report *wordcount.Report, s *storage.Storage) error {
	data, err := yaml.Marshal(Build(report, s))
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}
	if err := s.SaveFile(path, data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}

func traffic(st pgas.Stats) Traffic {
	return Traffic{
		Puts:          st.Puts,
		RemoteGets:    st.RemoteGets,
		LocalGets:     st.LocalGets,
		Barriers:      st.Barriers,
		PairBarriers:  st.PairBarriers,
		GroupBarriers: st.GroupBarriers,
	}
}
