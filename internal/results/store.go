package results

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Status is the outcome of a single check
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
	StatusSkip  Status = "SKIP"
)

// Outcome records how one check ended
type Outcome struct {
	Check    string            `json:"check"`
	Status   Status            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Duration time.Duration     `json:"duration"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Run is everything a suite run hands off for reporting
type Run struct {
	ID       string         `json:"id"`
	Target   string         `json:"target"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Bag      map[string]any `json:"bag"`
	Outcomes []Outcome      `json:"outcomes"`
}

// Counts returns the number of outcomes per status
func (r *Run) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Passed returns true if no check failed or errored
func (r *Run) Passed() bool {
	c := r.Counts()
	return c[StatusFail] == 0 && c[StatusError] == 0
}

// Summary returns the RunSummary for r
func (r *Run) Summary() RunSummary {
	c := r.Counts()
	return RunSummary{
		ID:       r.ID,
		Target:   r.Target,
		Started:  r.Started,
		Finished: r.Finished,
		Passed:   c[StatusPass],
		Failed:   c[StatusFail] + c[StatusError],
		Skipped:  c[StatusSkip],
	}
}

// RunSummary is a one-line view of a stored run
type RunSummary struct {
	ID       string
	Target   string
	Started  time.Time
	Finished time.Time
	Passed   int
	Failed   int
	Skipped  int
}

// Store persists and retrieves runs
type Store interface {
	Save(run *Run) error
	Load(id string) (*Run, error)
	List() ([]RunSummary, error)
	Close() error
}

// Store kinds accepted by Open
const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// Open returns the Store of the given kind rooted at path. For json, path is
// a directory; for sqlite, a database file.
func Open(log zerolog.Logger, kind, path string) (Store, error) {
	switch kind {
	case KindJSON:
		return NewDiskStore(path), nil
	case KindSQLite, "":
		return OpenSQLiteStore(log, path)
	default:
		return nil, fmt.Errorf("unknown results store %q (use %s or %s)", kind, KindSQLite, KindJSON)
	}
}
