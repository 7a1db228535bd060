package mapreduce

import "github.com/dtnitsch/wordreduce/pkg/analytics"

// Number is the set of count types Sum can add.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float64
}

// MergeFunc folds in into acc. It must not modify in, and it must be
// associative and commutative: the reduction strategies apply it in
// whatever order their topology dictates.
type MergeFunc[K comparable, V any] func(acc, in map[K]V)

// Sum returns the merge operator that adds counts per key.
func Sum[K comparable, V Number]() MergeFunc[K, V] {
	return func(acc, in map[K]V) {
		for k, v := range in {
			acc[k] += v
		}
	}
}

// Clone returns a shallow copy of m. A nil map clones to an empty one.
func Clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Map generates the word frequency map of a single document's content. A
// nil a counts with the default Analytics.
func Map(content string, a *analytics.Analytics, tok analytics.Tokenizer) map[string]int {
	if a == nil {
		return analytics.Count(content, tok)
	}
	return a.Count(content, tok)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)
	merge := Sum[string, int]()

	for _, counts := range intermediate {
		merge(finalResults, counts)
	}

	return finalResults
}
