package db

// Only completed runs are recorded. Partial reduction state never is.
const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per completed run; durations in nanoseconds
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    strategy TEXT NOT NULL,
    ranks INTEGER NOT NULL,
    local_capacity INTEGER NOT NULL,
    tokenizer TEXT NOT NULL,
    counting_ns INTEGER NOT NULL,
    reduction_ns INTEGER NOT NULL,
    total_ns INTEGER NOT NULL,
    distinct_words INTEGER NOT NULL,
    total_words INTEGER NOT NULL,
    output_path TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);

-- Per-rank input of a run
CREATE TABLE IF NOT EXISTS run_ranks (
    run_id INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    input_path TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    language TEXT,
    tokens INTEGER NOT NULL,
    distinct_words INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

-- Top words of the final mapping, in rank order
CREATE TABLE IF NOT EXISTS run_keywords (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    word TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`
