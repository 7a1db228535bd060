package analytics

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenizer selects how text is split into countable tokens.
type Tokenizer string

const (
	// TokenizerBoundary splits each line on word boundaries: every run of
	// word characters and every run of other characters is a token, case
	// preserved.
	TokenizerBoundary Tokenizer = "boundary"
	// TokenizerWords lowercases, strips punctuation and drops stopwords.
	TokenizerWords Tokenizer = "words"
)

// ParseTokenizer maps a config value to a Tokenizer. Empty means boundary.
func ParseTokenizer(s string) (Tokenizer, error) {
	switch Tokenizer(strings.ToLower(strings.TrimSpace(s))) {
	case "", TokenizerBoundary:
		return TokenizerBoundary, nil
	case TokenizerWords:
		return TokenizerWords, nil
	}
	return "", fmt.Errorf("unknown tokenizer %q (want boundary or words)", s)
}

type Analytics struct {
	// KeepStopwords disables stopword filtering in WordFrequency. Set it
	// for text that is not English.
	KeepStopwords bool
}

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := commonWords[strings.ToLower(word)]
	return exists
}

// Count builds the partial map of text with the default Analytics.
func Count(text string, tok Tokenizer) map[string]int {
	a := &Analytics{}
	return a.Count(text, tok)
}

// Count builds the partial map of text using tok.
func (a *Analytics) Count(text string, tok Tokenizer) map[string]int {
	if tok == TokenizerWords {
		return a.WordFrequency(text)
	}
	frequencies := make(map[string]int)
	for _, token := range BoundaryTokens(text) {
		frequencies[token]++
	}
	return frequencies
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isBoundarySpace is the ASCII whitespace a boundary absorbs. Line breaks
// never reach it.
func isBoundarySpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}

// BoundaryTokens splits text line by line at word boundaries. A boundary
// absorbs the whitespace next to it, so a run of word characters is always
// its own token while a run of anything else stays whole: "a !! ?? b"
// yields ["a", "!! ??", "b"]. Whitespace only disappears where it touches
// a word, which keeps a line without word characters as a single token.
func BoundaryTokens(text string) []string {
	var tokens []string
	for _, line := range splitLines(text) {
		tokens = appendLineTokens(tokens, line)
	}
	return tokens
}

func appendLineTokens(tokens []string, line string) []string {
	start := 0
	var startWord bool
	emit := func(end int) {
		if start == end {
			return
		}
		token := line[start:end]
		if !startWord {
			if start > 0 {
				token = strings.TrimLeftFunc(token, isBoundarySpace)
			}
			if end < len(line) {
				token = strings.TrimRightFunc(token, isBoundarySpace)
			}
		}
		if token != "" {
			tokens = append(tokens, token)
		}
	}

	for i, r := range line {
		word := isWordRune(r)
		if i == 0 {
			startWord = word
			continue
		}
		if word != startWord {
			emit(i)
			start = i
			startWord = word
		}
	}
	emit(len(line))
	return tokens
}

// splitLines breaks text at \n, \r\n and \r.
func splitLines(text string) []string {
	return strings.FieldsFunc(strings.ReplaceAll(text, "\r\n", "\n"), func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}

func (a *Analytics) WordFrequency(text string) map[string]int {
	words := strings.Fields(strings.ToLower(text)) // strings.Fields handles multiple spaces and newlines
	frequencies := make(map[string]int)

	for _, word := range words {
		// Remove punctuation from words
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		if _, exists := commonWords[word]; exists && !a.KeepStopwords {
			continue
		}

		frequencies[word]++
	}

	return frequencies
}
