package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one completed reduction run.
type Run struct {
	RunID         int64
	CreatedAt     time.Time
	Strategy      string
	Ranks         int
	LocalCapacity int
	Tokenizer     string
	Counting      time.Duration
	Reduction     time.Duration
	Total         time.Duration
	DistinctWords int
	TotalWords    int64
	OutputPath    string
}

// RankInput describes the input one rank counted.
type RankInput struct {
	Rank          int
	InputPath     string
	ContentHash   string
	Language      string
	Tokens        int64
	DistinctWords int
}

// Keyword is one entry of a run's top words.
type Keyword struct {
	Word  string
	Count int64
}

// InsertRun stores a run with its per-rank inputs and top words in one
// transaction and returns the new run ID.
func (db *DB) InsertRun(run *Run, ranks []RankInput, keywords []Keyword) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	result, err := tx.Exec(`
		INSERT INTO runs (strategy, ranks, local_capacity, tokenizer,
		                  counting_ns, reduction_ns, total_ns,
		                  distinct_words, total_words, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Strategy, run.Ranks, run.LocalCapacity, run.Tokenizer,
		int64(run.Counting), int64(run.Reduction), int64(run.Total),
		run.DistinctWords, run.TotalWords, run.OutputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, r := range ranks {
		if _, err := tx.Exec(`
			INSERT INTO run_ranks (run_id, rank, input_path, content_hash, language, tokens, distinct_words)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, r.Rank, r.InputPath, r.ContentHash, r.Language, r.Tokens, r.DistinctWords); err != nil {
			return 0, fmt.Errorf("failed to insert rank %d: %w", r.Rank, err)
		}
	}

	for i, k := range keywords {
		if _, err := tx.Exec(`
			INSERT INTO run_keywords (run_id, position, word, count)
			VALUES (?, ?, ?, ?)
		`, runID, i+1, k.Word, k.Count); err != nil {
			return 0, fmt.Errorf("failed to insert keyword %q: %w", k.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `run_id, created_at, strategy, ranks, local_capacity, tokenizer,
	counting_ns, reduction_ns, total_ns, distinct_words, total_words, output_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var counting, reduction, total int64
	var output sql.NullString
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.Strategy, &r.Ranks, &r.LocalCapacity, &r.Tokenizer,
		&counting, &reduction, &total, &r.DistinctWords, &r.TotalWords, &output); err != nil {
		return nil, err
	}
	r.Counting = time.Duration(counting)
	r.Reduction = time.Duration(reduction)
	r.Total = time.Duration(total)
	r.OutputPath = output.String
	return &r, nil
}

// GetRunByID returns a single run.
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY run_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the highest run ID, or an error if there are no runs.
func (db *DB) LatestRunID() (int64, error) {
	var id sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(run_id) FROM runs`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	if !id.Valid {
		return 0, fmt.Errorf("no runs recorded")
	}
	return id.Int64, nil
}

// GetRunRanks returns the per-rank inputs of a run ordered by rank.
func (db *DB) GetRunRanks(runID int64) ([]RankInput, error) {
	rows, err := db.Query(`
		SELECT rank, input_path, content_hash, language, tokens, distinct_words
		FROM run_ranks
		WHERE run_id = ?
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run ranks: %w", err)
	}
	defer rows.Close()

	var ranks []RankInput
	for rows.Next() {
		var r RankInput
		var lang sql.NullString
		if err := rows.Scan(&r.Rank, &r.InputPath, &r.ContentHash, &lang, &r.Tokens, &r.DistinctWords); err != nil {
			return nil, fmt.Errorf("failed to scan rank: %w", err)
		}
		r.Language = lang.String
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// GetRunKeywords returns the stored top words of a run in order.
func (db *DB) GetRunKeywords(runID int64) ([]Keyword, error) {
	rows, err := db.Query(`
		SELECT word, count FROM run_keywords
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.Word, &k.Count); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its ranks and keywords.
func (db *DB) DeleteRun(runID int64) error {
	res, err := db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}
