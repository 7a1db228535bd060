package history

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func ListAction(c *cli.Context) error {
	database, err := OpenDB(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-12s %-6s %-9s %-12s %-12s %-10s\n",
		"ID", "Created", "Strategy", "Ranks", "Capacity", "Counting", "Reduction", "Distinct")
	fmt.Println(strings.Repeat("-", 96))

	for _, r := range runs {
		fmt.Printf("%-6d %-20s %-12s %-6d %-9d %-12s %-12s %-10d\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Strategy,
			r.Ranks,
			r.LocalCapacity,
			r.Counting,
			r.Reduction,
			r.DistinctWords,
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'wordreduce history show <id>' to see details\n")

	return nil
}

// ShowAction prints one run with its inputs and top words
func ShowAction(c *cli.Context) error {
	database, err := OpenDB(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRunByID(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	ranks, err := database.GetRunRanks(runID)
	if err != nil {
		return fmt.Errorf("failed to get run ranks: %w", err)
	}
	keywords, err := database.GetRunKeywords(runID)
	if err != nil {
		return fmt.Errorf("failed to get run keywords: %w", err)
	}

	fmt.Printf("Run %d\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:     %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Strategy:    %s (ranks=%d, local_capacity=%d)\n", run.Strategy, run.Ranks, run.LocalCapacity)
	fmt.Printf("Tokenizer:   %s\n", run.Tokenizer)
	fmt.Printf("Timings:     total %s, counting %s, reduction %s\n", run.Total, run.Counting, run.Reduction)
	fmt.Printf("Words:       %d total, %d distinct\n", run.TotalWords, run.DistinctWords)
	if run.OutputPath != "" {
		fmt.Printf("Output:      %s\n", run.OutputPath)
	}

	fmt.Printf("\nInputs (%d):\n", len(ranks))
	fmt.Println(strings.Repeat("-", 60))
	for _, r := range ranks {
		lang := r.Language
		if lang == "" {
			lang = "(none)"
		}
		fmt.Printf("%3d. %s\n", r.Rank, r.InputPath)
		fmt.Printf("     Tokens: %d | Distinct: %d | Language: %s | SHA256: %.12s\n",
			r.Tokens, r.DistinctWords, lang, r.ContentHash)
	}

	if len(keywords) > 0 {
		fmt.Printf("\nTop words (%d):\n", len(keywords))
		fmt.Println(strings.Repeat("-", 60))
		for i, k := range keywords {
			fmt.Printf("%2d. %s: %d\n", i+1, k.Word, k.Count)
		}
	}

	return nil
}

// DeleteAction removes a run and everything recorded with it
func DeleteAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("run ID required")
	}
	database, err := OpenDB(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}
	if err := database.DeleteRun(runID); err != nil {
		return err
	}
	fmt.Printf("Deleted run %d\n", runID)
	return nil
}
