package models

import (
	"fmt"
	"time"
)

// Timings are the three phase boundaries of a run as seen by rank 0.
type Timings struct {
	LocalStart  time.Time `yaml:"local_start"`
	ReduceStart time.Time `yaml:"reduce_start"`
	ReduceEnd   time.Time `yaml:"reduce_end"`
}

// Counting is the time spent building partial maps.
func (t Timings) Counting() time.Duration {
	return t.ReduceStart.Sub(t.LocalStart)
}

// Reduction is the time spent merging partial maps.
func (t Timings) Reduction() time.Duration {
	return t.ReduceEnd.Sub(t.ReduceStart)
}

// Total is Counting plus Reduction.
func (t Timings) Total() time.Duration {
	return t.ReduceEnd.Sub(t.LocalStart)
}

// ReportHeader is the header line matching ReportLine.
const ReportHeader = "threads\ttotal\tcounting\treduction"

// ReportLine formats rank count and phase durations in seconds.
func (t Timings) ReportLine(ranks int) string {
	return fmt.Sprintf("%d\t%g\t%g\t%g", ranks, t.Total().Seconds(), t.Counting().Seconds(), t.Reduction().Seconds())
}
