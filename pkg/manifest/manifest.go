package manifest

// RunManifest is the YAML summary written next to a run's counts. It gives
// an overview of the run without reading the counts file.
type RunManifest struct {
	GeneratedAt       string        `yaml:"generated_at"`
	Strategy          string        `yaml:"strategy"`
	Ranks             int           `yaml:"ranks"`
	LocalCapacity     int           `yaml:"local_capacity"`
	TotalSeconds      float64       `yaml:"total_seconds"`
	CountingSeconds   float64       `yaml:"counting_seconds"`
	ReductionSeconds  float64       `yaml:"reduction_seconds"`
	TotalWords        int64         `yaml:"total_words"`
	DistinctWords     int           `yaml:"distinct_words"`
	Traffic           Traffic       `yaml:"traffic"`
	AggregateKeywords []string      `yaml:"aggregate_keywords"`
	Ranked            []RankSummary `yaml:"ranks_detail"`
}

// Traffic counts substrate operations.
type Traffic struct {
	Puts          int64 `yaml:"puts"`
	RemoteGets    int64 `yaml:"remote_gets"`
	LocalGets     int64 `yaml:"local_gets"`
	Barriers      int64 `yaml:"barriers"`
	PairBarriers  int64 `yaml:"pair_barriers,omitempty"`
	GroupBarriers int64 `yaml:"group_barriers,omitempty"`
}

// RankSummary describes one rank's input and traffic.
type RankSummary struct {
	Rank          int     `yaml:"rank"`
	Input         string  `yaml:"input"`
	SizeBytes     int64   `yaml:"size_bytes,omitempty"`
	Language      string  `yaml:"language,omitempty"`
	Tokens        int64   `yaml:"tokens"`
	DistinctWords int     `yaml:"distinct_words"`
	ContentHash   string  `yaml:"content_hash"`
	Traffic       Traffic `yaml:"traffic"`
}
