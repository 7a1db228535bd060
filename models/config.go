// Package models defines data structures for run configuration and reporting.
package models

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats for the result file.
const (
	FormatTSV  = "tsv"
	FormatYAML = "yaml"
)

// Input encodings.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
)

const DefaultTop = 25

var ErrBlankInput = errors.New("blank line in input list")

// RunConfig holds everything a run needs. It is loaded from YAML and then
// overridden by CLI flags.
type RunConfig struct {
	Strategy       Strategy `yaml:"strategy"`
	Ranks          int      `yaml:"ranks,omitempty"`
	LocalCapacity  int      `yaml:"local_capacity,omitempty"`
	Tokenizer      string   `yaml:"tokenizer,omitempty"`
	Encoding       string   `yaml:"encoding,omitempty"`
	DetectLanguage bool     `yaml:"detect_language,omitempty"`
	Inputs         []string `yaml:"inputs"`
	Output         string   `yaml:"output,omitempty"`
	Format         string   `yaml:"format,omitempty"`
	History        bool     `yaml:"history,omitempty"`
	Top            int      `yaml:"top"`
}

// NewRunConfig returns a RunConfig carrying the defaults that zero cannot
// stand for. Top is one of them: 0 turns the listing off.
func NewRunConfig() *RunConfig {
	return &RunConfig{Top: DefaultTop}
}

// LoadConfig reads a RunConfig from a YAML file. Keys absent from the file
// keep the values of NewRunConfig.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := NewRunConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadInputList reads a plain list of input files, one per line. Line i is
// the input of rank i, so every line counts: a blank line before the last
// input is an error, and trailing blank lines are dropped.
func LoadInputList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input list: %w", err)
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		inputs = append(inputs, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input list: %w", err)
	}

	for len(inputs) > 0 && inputs[len(inputs)-1] == "" {
		inputs = inputs[:len(inputs)-1]
	}
	for i, in := range inputs {
		if in == "" {
			return nil, fmt.Errorf("%w: %s line %d is blank, rank %d has no input", ErrBlankInput, path, i+1, i)
		}
	}
	return inputs, nil
}

// ApplyDefaults fills unset fields.
func (c *RunConfig) ApplyDefaults() {
	if c.Ranks == 0 {
		c.Ranks = len(c.Inputs)
	}
	if c.LocalCapacity == 0 {
		c.LocalCapacity = runtime.NumCPU()
	}
	if c.Tokenizer == "" {
		c.Tokenizer = "boundary"
	}
	if c.Encoding == "" {
		c.Encoding = EncodingUTF8
	}
	if c.Format == "" {
		c.Format = FormatTSV
	}
}

// Validate checks the fields that do not depend on the strategy. Strategy
// preconditions are checked by the reduce package.
func (c *RunConfig) Validate() error {
	var errs []error
	if c.Ranks < 1 {
		errs = append(errs, fmt.Errorf("ranks must be at least 1, got %d", c.Ranks))
	}
	if len(c.Inputs) != c.Ranks {
		errs = append(errs, fmt.Errorf("need one input per rank: %d inputs for %d ranks", len(c.Inputs), c.Ranks))
	}
	if c.LocalCapacity < 1 {
		errs = append(errs, fmt.Errorf("local_capacity must be at least 1, got %d", c.LocalCapacity))
	}
	switch strings.ToLower(c.Encoding) {
	case EncodingUTF8, EncodingLatin1:
	default:
		errs = append(errs, fmt.Errorf("unknown encoding %q (want %s or %s)", c.Encoding, EncodingUTF8, EncodingLatin1))
	}
	switch c.Format {
	case FormatTSV, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatTSV, FormatYAML))
	}
	if c.Top < 0 {
		errs = append(errs, fmt.Errorf("top must not be negative, got %d", c.Top))
	}
	return errors.Join(errs...)
}
