package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/wordreduce/models"
	"github.com/dtnitsch/wordreduce/pkg/mapreduce"
)

type Storage struct{}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// EncodeCounts renders the ordered pairs as "key\tvalue" lines or as a
// YAML sequence.
func EncodeCounts(pairs []mapreduce.Pair[string, int], format string) ([]byte, error) {
	switch format {
	case "", models.FormatTSV:
		var buf bytes.Buffer
		for _, p := range pairs {
			fmt.Fprintf(&buf, "%s\t%d\n", p.Key, p.Value)
		}
		return buf.Bytes(), nil
	case models.FormatYAML:
		return yaml.Marshal(pairs)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// DecodeCounts parses what EncodeCounts produced.
func DecodeCounts(data []byte, format string) (map[string]int, error) {
	out := make(map[string]int)
	switch format {
	case "", models.FormatTSV:
		for i, line := range bytes.Split(data, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			tab := bytes.LastIndexByte(line, '\t')
			if tab < 0 {
				return nil, fmt.Errorf("line %d: missing tab", i+1)
			}
			var n int
			if _, err := fmt.Sscanf(string(line[tab+1:]), "%d", &n); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			out[string(line[:tab])] += n
		}
		return out, nil
	case models.FormatYAML:
		var pairs []mapreduce.Pair[string, int]
		if err := yaml.Unmarshal(data, &pairs); err != nil {
			return nil, err
		}
		for _, p := range pairs {
			out[p.Key] += p.Value
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// WriteCounts saves the final mapping to path in key order.
func (s *Storage) WriteCounts(path, format string, counts map[string]int) error {
	data, err := EncodeCounts(mapreduce.Sorted(counts), format)
	if err != nil {
		return err
	}
	return s.SaveFile(path, data)
}
