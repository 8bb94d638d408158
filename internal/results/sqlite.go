package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteStore keeps runs in a SQLite database.
type SQLiteStore struct {
	log zerolog.Logger
	db  *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and runs migrations.
func OpenSQLiteStore(log zerolog.Logger, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		log: log.With().Str("component", "results").Logger(),
		db:  db,
	}, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		target      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	-- Results bag, one row per key. kind preserves the scalar type.
	CREATE TABLE IF NOT EXISTS bag_entries (
		run_id TEXT NOT NULL,
		key    TEXT NOT NULL,
		kind   TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (run_id, key),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		run_id      TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		check_name  TEXT NOT NULL,
		status      TEXT NOT NULL,
		message     TEXT,
		duration_ns INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS labels (
		run_id     TEXT NOT NULL,
		check_name TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		PRIMARY KEY (run_id, check_name, key),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save writes a run and everything attached to it in one transaction
func (s *SQLiteStore) Save(run *Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("replace run %s: %w", run.ID, err)
	}

	_, err = tx.Exec(`INSERT INTO runs (id, target, started_at, finished_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Target, formatTime(run.Started), formatTime(run.Finished))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for key, value := range run.Bag {
		kind, encoded, err := encodeValue(value)
		if err != nil {
			return fmt.Errorf("bag %q: %w", key, err)
		}
		if _, err := tx.Exec(`INSERT INTO bag_entries (run_id, key, kind, value) VALUES (?, ?, ?, ?)`,
			run.ID, key, kind, encoded); err != nil {
			return fmt.Errorf("insert bag %q: %w", key, err)
		}
	}

	for i, o := range run.Outcomes {
		if _, err := tx.Exec(`INSERT INTO outcomes (run_id, seq, check_name, status, message, duration_ns) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, o.Check, string(o.Status), o.Message, int64(o.Duration)); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Check, err)
		}
		for k, v := range o.Labels {
			if _, err := tx.Exec(`INSERT INTO labels (run_id, check_name, key, value) VALUES (?, ?, ?, ?)`,
				run.ID, o.Check, k, v); err != nil {
				return fmt.Errorf("insert label %s/%s: %w", o.Check, k, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}

	s.log.Debug().
		Str("run", run.ID).
		Int("outcomes", len(run.Outcomes)).
		Int("bag", len(run.Bag)).
		Msg("run saved")
	return nil
}

// Load reads a run back by id
func (s *SQLiteStore) Load(id string) (*Run, error) {
	run := &Run{ID: id, Bag: make(map[string]any)}

	var started, finished string
	err := s.db.QueryRow(`SELECT target, started_at, finished_at FROM runs WHERE id = ?`, id).
		Scan(&run.Target, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	run.Started = parseTime(started)
	run.Finished = parseTime(finished)

	if err := s.loadBag(run); err != nil {
		return nil, err
	}
	if err := s.loadOutcomes(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) loadBag(run *Run) error {
	rows, err := s.db.Query(`SELECT key, kind, value FROM bag_entries WHERE run_id = ?`, run.ID)
	if err != nil {
		return fmt.Errorf("query bag: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, kind, value string
		if err := rows.Scan(&key, &kind, &value); err != nil {
			return fmt.Errorf("scan bag: %w", err)
		}
		v, err := decodeValue(kind, value)
		if err != nil {
			return fmt.Errorf("bag %q: %w", key, err)
		}
		run.Bag[key] = v
	}
	return rows.Err()
}

func (s *SQLiteStore) loadOutcomes(run *Run) error {
	rows, err := s.db.Query(`SELECT check_name, status, message, duration_ns FROM outcomes WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil {
		return fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var o Outcome
		var status string
		var message sql.NullString
		var duration int64
		if err := rows.Scan(&o.Check, &status, &message, &duration); err != nil {
			return fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = Status(status)
		o.Message = message.String
		o.Duration = time.Duration(duration)
		index[o.Check] = len(run.Outcomes)
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	lrows, err := s.db.Query(`SELECT check_name, key, value FROM labels WHERE run_id = ?`, run.ID)
	if err != nil {
		return fmt.Errorf("query labels: %w", err)
	}
	defer lrows.Close()

	for lrows.Next() {
		var check, key, value string
		if err := lrows.Scan(&check, &key, &value); err != nil {
			return fmt.Errorf("scan label: %w", err)
		}
		i, ok := index[check]
		if !ok {
			continue
		}
		if run.Outcomes[i].Labels == nil {
			run.Outcomes[i].Labels = make(map[string]string)
		}
		run.Outcomes[i].Labels[key] = value
	}
	return lrows.Err()
}

// List returns summaries of all stored runs, newest first
func (s *SQLiteStore) List() ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.target, r.started_at, r.finished_at,
			COALESCE(SUM(CASE WHEN o.status = 'PASS' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN o.status IN ('FAIL', 'ERROR') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN o.status = 'SKIP' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var started, finished string
		if err := rows.Scan(&sum.ID, &sum.Target, &started, &finished, &sum.Passed, &sum.Failed, &sum.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Started = parseTime(started)
		sum.Finished = parseTime(finished)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func encodeValue(value any) (string, string, error) {
	v, err := normalize(value)
	if err != nil {
		return "", "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	var kind string
	switch v.(type) {
	case string:
		kind = "string"
	case bool:
		kind = "bool"
	case int64:
		kind = "int"
	case float64:
		kind = "float"
	}
	return kind, string(data), nil
}

func decodeValue(kind, value string) (any, error) {
	var err error
	switch kind {
	case "string":
		var v string
		err = json.Unmarshal([]byte(value), &v)
		return v, err
	case "bool":
		var v bool
		err = json.Unmarshal([]byte(value), &v)
		return v, err
	case "int":
		var v int64
		err = json.Unmarshal([]byte(value), &v)
		return v, err
	case "float":
		var v float64
		err = json.Unmarshal([]byte(value), &v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}
