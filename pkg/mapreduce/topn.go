package mapreduce

import (
	"cmp"
	"fmt"
	"slices"
)

// Pair is one entry of a reduced mapping.
type Pair[K cmp.Ordered, V any] struct {
	Key   K `yaml:"key"`
	Value V `yaml:"value"`
}

// Sorted returns the entries of m ordered by key. This is the ordered
// sequence the root hands to the result sink.
func Sorted[K cmp.Ordered, V any](m map[K]V) []Pair[K, V] {
	out := make([]Pair[K, V], 0, len(m))
	for k, v := range m {
		out = append(out, Pair[K, V]{Key: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Pair[K, V]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// Top returns the n entries with the highest counts, ties broken by key.
func Top[K cmp.Ordered, V Number](m map[K]V, n int) []Pair[K, V] {
	ss := Sorted(m)
	slices.SortStableFunc(ss, func(a, b Pair[K, V]) int {
		return cmp.Compare(b.Value, a.Value)
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}
	return ss[:limit]
}

// TopKeywords returns the top N keywords as "word:count" strings
// (e.g., "learning:1153").
func TopKeywords[V Number](wordCounts map[string]V, n int) []string {
	top := Top(wordCounts, n)
	keywords := make([]string, len(top))
	for i, p := range top {
		keywords[i] = fmt.Sprintf("%s:%v", p.Key, p.Value)
	}
	return keywords
}

// PrintTopKeywords prints the top N keywords in a numbered list format.
func PrintTopKeywords[V Number](wordCounts map[string]V, n int) {
	for i, p := range Top(wordCounts, n) {
		fmt.Printf("%d. %s: %v\n", i+1, p.Key, p.Value)
	}
}
