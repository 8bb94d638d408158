// Package results collects the diagnostic metadata a run produces (the
// results bag and per-check labels) and hands it off to a Store.
package results

import (
	"fmt"
	"sort"
	"sync"
)

// Bag is an accumulating key/value store for cross-check reporting data.
// Values are scalars: string, bool, int, int64, float64.
type Bag struct {
	mu     sync.Mutex
	values map[string]any
}

// NewBag creates an empty bag
func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value
func (b *Bag) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("results bag key cannot be empty")
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("results bag %q: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = v
	return nil
}

// Get returns the value stored under key
func (b *Bag) Get(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order
func (b *Bag) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored values
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.values)
}

// Snapshot returns a copy of the bag contents
func (b *Bag) Snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// normalize widens integer types to int64 and float32 to float64, the two
// numeric kinds both stores load back
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// Labels are string annotations attached to a single check outcome for
// reporting, independent of pass/fail
type Labels struct {
	mu     sync.Mutex
	values map[string]string
}

// NewLabels creates an empty label set
func NewLabels() *Labels {
	return &Labels{values: make(map[string]string)}
}

// Set adds or replaces a label
func (l *Labels) Set(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[key] = value
}

// All returns a copy of the labels
func (l *Labels) All() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}
