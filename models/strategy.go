package models

import (
	"fmt"
	"strings"
)

// Strategy selects the reduction algorithm used for a run.
type Strategy int

const (
	// StrategyFlat gathers every partial map at rank 0.
	StrategyFlat Strategy = iota
	StrategyGrouped     // Group members gather strided ranks, rank 0 gathers the group
	StrategyPartitioned // Partition leaders gather their range, rank 0 gathers the leaders
	StrategyHypercube   // Butterfly pairwise exchange, power-of-two rank counts only
)

var strategyNames = map[Strategy]string{
	StrategyFlat:        "flat",
	StrategyGrouped:     "grouped",
	StrategyPartitioned: "partitioned",
	StrategyHypercube:   "hypercube",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy resolves a strategy name. Empty means flat.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StrategyFlat, nil
	}
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (want flat, grouped, partitioned or hypercube)", name)
}

// MarshalYAML writes the strategy by name.
func (s Strategy) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML reads the strategy by name.
func (s *Strategy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
