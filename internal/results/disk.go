package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DiskStore writes each Run as a JSON file named after its id.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a DiskStore. The directory is created on first Save.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Save writes a Run as a JSON file
func (s *DiskStore) Save(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", run.ID, err)
	}
	path := filepath.Join(s.dir, run.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run %s: %w", run.ID, err)
	}
	return nil
}

// Load reads a Run from disk
func (s *DiskStore) Load(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid run id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	var run Run
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&run); err != nil {
		return nil, fmt.Errorf("unmarshalling run %s: %w", id, err)
	}
	restoreNumbers(run.Bag)
	return &run, nil
}

// restoreNumbers turns decoded JSON numbers back into the kinds Bag stores:
// integers become int64, anything else float64. JSON cannot tell 2.0 from 2,
// so a whole-valued float loads as int64.
func restoreNumbers(bag map[string]any) {
	for k, v := range bag {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			bag[k] = i
		} else if f, err := n.Float64(); err == nil {
			bag[k] = f
		}
	}
}

// List returns summaries of all stored runs, newest first
func (s *DiskStore) List() ([]RunSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	var summaries []RunSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		run, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, run.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Started.After(summaries[j].Started)
	})
	return summaries, nil
}

// Close is a no-op
func (s *DiskStore) Close() error {
	return nil
}
