package run

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dtnitsch/wordreduce/internal/common"
	"github.com/dtnitsch/wordreduce/models"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the stderr JSON logger used by every command.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ResolveConfig merges the config file, the input list file, positional
// arguments and flags, in that order, into a validated RunConfig.
func ResolveConfig(c *cli.Context) (*models.RunConfig, error) {
	cfg := models.NewRunConfig()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := c.String("inputs-file"); path != "" {
		inputs, err := models.LoadInputList(path)
		if err != nil {
			return nil, err
		}
		cfg.Inputs = inputs
	}
	if c.NArg() > 0 {
		cfg.Inputs = append(cfg.Inputs, c.Args().Slice()...)
	}

	if c.IsSet("strategy") {
		s, err := models.ParseStrategy(c.String("strategy"))
		if err != nil {
			return nil, err
		}
		cfg.Strategy = s
	}
	if c.IsSet("ranks") {
		cfg.Ranks = c.Int("ranks")
	}
	if c.IsSet("local-capacity") {
		cfg.LocalCapacity = c.Int("local-capacity")
	}
	if c.IsSet("tokenizer") {
		cfg.Tokenizer = c.String("tokenizer")
	}
	if c.IsSet("encoding") {
		cfg.Encoding = c.String("encoding")
	}
	if c.IsSet("detect-language") {
		cfg.DetectLanguage = c.Bool("detect-language")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("history") {
		cfg.History = c.Bool("history")
	}
	if c.IsSet("top") {
		cfg.Top = c.Int("top")
	}

	sanitized, invalid := common.SanitizeAndValidatePaths(cfg.Inputs)
	if len(invalid) > 0 {
		return nil, fmt.Errorf("unreadable inputs: %s", strings.Join(invalid, ", "))
	}
	cfg.Inputs = sanitized

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
