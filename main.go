package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/wordreduce/internal/history"
	"github.com/dtnitsch/wordreduce/internal/run"
	"github.com/dtnitsch/wordreduce/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "wordreduce",
		Usage: "Count words across inputs and reduce the partial counts with a selectable strategy",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Count words, one rank per input, and reduce at rank 0",
				ArgsUsage: "[input files...]",
				Flags:     append(configFlags(), runFlags()...),
				Action:    run.RunAction,
			},
			{
				Name:      "validate",
				Usage:     "Check a configuration against its strategy without reading inputs",
				ArgsUsage: "[input files...]",
				Flags:     configFlags(),
				Action:    run.ValidateAction,
			},
			{
				Name:  "history",
				Usage: "Inspect recorded runs",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List recorded runs, newest first",
						Flags:  []cli.Flag{dbFlag(), &cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum runs to list (0 = all)"}},
						Action: history.ListAction,
					},
					{
						Name:      "show",
						Usage:     "Show one run (latest if no ID)",
						ArgsUsage: "[run-id]",
						Flags:     []cli.Flag{dbFlag()},
						Action:    history.ShowAction,
					},
					{
						Name:      "delete",
						Usage:     "Delete a recorded run",
						ArgsUsage: "<run-id>",
						Flags:     []cli.Flag{dbFlag()},
						Action:    history.DeleteAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print a YAML quick start",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{Name: "db", Usage: "SQLite history database (default: wordreduce.db next to the binary)"}
}

// configFlags are shared by run and validate.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML run configuration"},
		&cli.StringFlag{Name: "inputs-file", Aliases: []string{"i"}, Usage: "File listing one input per line; line i is rank i"},
		&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: "flat", Usage: "flat, grouped, partitioned or hypercube"},
		&cli.IntFlag{Name: "ranks", Aliases: []string{"n"}, Usage: "Rank count (default: number of inputs)"},
		&cli.IntFlag{Name: "local-capacity", Aliases: []string{"p"}, Usage: "Group or partition size (default: number of CPUs)"},
		&cli.StringFlag{Name: "tokenizer", Value: "boundary", Usage: "boundary or words"},
		&cli.StringFlag{Name: "encoding", Value: "utf-8", Usage: "Input encoding: utf-8 or iso-8859-1"},
		&cli.BoolFlag{Name: "detect-language", Usage: "Detect each input's language; keeps stopwords for non-English text"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors and skip the top words"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log per-rank detail"},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the final counts to this file"},
		&cli.StringFlag{Name: "format", Value: "tsv", Usage: "Counts file format: tsv or yaml"},
		&cli.BoolFlag{Name: "no-manifest", Usage: "Do not write <output>.manifest.yaml"},
		&cli.IntFlag{Name: "top", Value: 25, Usage: "Print and record the N most frequent words (0 = none)"},
		&cli.BoolFlag{Name: "history", Usage: "Record the run in the SQLite history"},
		&cli.StringFlag{Name: "cache-dir", Usage: "Reuse partial counts of unchanged inputs from this directory"},
		&cli.DurationFlag{Name: "cache-ttl", Usage: "Expire cached partial counts after this long (0 = never)"},
		dbFlag(),
	}
}
