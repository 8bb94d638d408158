package results

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBag_SetGet(t *testing.T) {
	bag := NewBag()

	tests := []struct {
		key   string
		value any
		want  any
	}{
		{"kernel", "Linux OpenWrt 5.15.134", "Linux OpenWrt 5.15.134"},
		{"memory_used_mb", 42, int64(42)},
		{"ssh_ready", true, true},
		{"load", float32(0.5), float64(0.5)},
	}

	for _, tt := range tests {
		if err := bag.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%q) error: %v", tt.key, err)
		}
		got, ok := bag.Get(tt.key)
		if !ok || got != tt.want {
			t.Errorf("Get(%q) = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
		}
	}

	if bag.Len() != len(tests) {
		t.Errorf("Len() = %d, want %d", bag.Len(), len(tests))
	}
	keys := bag.Keys()
	if keys[0] != "kernel" || keys[len(keys)-1] != "ssh_ready" {
		t.Errorf("Keys() not sorted: %v", keys)
	}
}

func TestBag_Rejects(t *testing.T) {
	bag := NewBag()
	if err := bag.Set("", "x"); err == nil {
		t.Error("expected error for empty key")
	}
	if err := bag.Set("list", []string{"a"}); err == nil {
		t.Error("expected error for non-scalar value")
	}
}

func TestBag_SnapshotIsCopy(t *testing.T) {
	bag := NewBag()
	_ = bag.Set("a", "1")
	snap := bag.Snapshot()
	snap["a"] = "changed"
	if v, _ := bag.Get("a"); v != "1" {
		t.Errorf("snapshot mutation leaked into bag: %v", v)
	}
}

func TestLabels(t *testing.T) {
	l := NewLabels()
	l.Set("board", "x86/64")
	l.Set("board", "ath79")
	all := l.All()
	if len(all) != 1 || all["board"] != "ath79" {
		t.Errorf("All() = %v", all)
	}
}

func sampleRun(id string, started time.Time) *Run {
	return &Run{
		ID:       id,
		Target:   "qemu",
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Bag: map[string]any{
			"uname":       "Linux OpenWrt 5.15",
			"used_memory": int64(21),
			"load":        0.25,
			"rootfs":      true,
		},
		Outcomes: []Outcome{
			{Check: "base.Shell", Status: StatusPass, Duration: time.Second},
			{Check: "base.SSH", Status: StatusSkip, Message: "missing feature ssh"},
			{Check: "base.KernelErrors", Status: StatusFail, Message: "kernel log matched",
				Labels: map[string]string{"pattern": "segfault"}},
		},
	}
}

func TestRun_Summary(t *testing.T) {
	run := sampleRun("r1", time.Now())
	sum := run.Summary()
	if sum.Passed != 1 || sum.Failed != 1 || sum.Skipped != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if run.Passed() {
		t.Error("expected run with a failure not to pass")
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	store := NewDiskStore(filepath.Join(t.TempDir(), "runs"))
	defer store.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save(sampleRun("older", base)); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(sampleRun("newer", base.Add(time.Hour))); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	run, err := store.Load("older")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if run.Target != "qemu" || len(run.Outcomes) != 3 {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Outcomes[2].Labels["pattern"] != "segfault" {
		t.Errorf("labels lost: %+v", run.Outcomes[2])
	}
	for key, want := range sampleRun("older", base).Bag {
		if got := run.Bag[key]; got != want {
			t.Errorf("Bag[%q] = %v (%T), want %v (%T)", key, got, got, want, want)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "newer" {
		t.Errorf("expected newest first, got %+v", list)
	}

	if _, err := store.Load("../etc/passwd"); err == nil {
		t.Error("expected error for id with path separator")
	}
}

func TestDiskStore_ListMissingDir(t *testing.T) {
	store := NewDiskStore(filepath.Join(t.TempDir(), "absent"))
	list, err := store.List()
	if err != nil || len(list) != 0 {
		t.Errorf("List() = %v, %v", list, err)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := OpenSQLiteStore(zerolog.Nop(), filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore error: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save(sampleRun("older", base)); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(sampleRun("newer", base.Add(time.Hour))); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	// saving the same id twice replaces it
	if err := store.Save(sampleRun("newer", base.Add(time.Hour))); err != nil {
		t.Fatalf("re-Save error: %v", err)
	}

	run, err := store.Load("older")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !run.Started.Equal(base) {
		t.Errorf("Started = %v, want %v", run.Started, base)
	}
	if v := run.Bag["used_memory"]; v != int64(21) {
		t.Errorf("bag int = %v (%T)", v, v)
	}
	if v := run.Bag["uname"]; v != "Linux OpenWrt 5.15" {
		t.Errorf("bag string = %v", v)
	}
	for key, want := range sampleRun("older", base).Bag {
		if got := run.Bag[key]; got != want {
			t.Errorf("Bag[%q] = %v (%T), want %v (%T)", key, got, got, want, want)
		}
	}
	if len(run.Outcomes) != 3 || run.Outcomes[0].Check != "base.Shell" {
		t.Fatalf("unexpected outcomes: %+v", run.Outcomes)
	}
	if run.Outcomes[0].Duration != time.Second {
		t.Errorf("duration = %v", run.Outcomes[0].Duration)
	}
	if run.Outcomes[2].Labels["pattern"] != "segfault" {
		t.Errorf("labels lost: %+v", run.Outcomes[2])
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "newer" {
		t.Fatalf("expected 2 runs newest first, got %+v", list)
	}
	if list[0].Passed != 1 || list[0].Failed != 1 || list[0].Skipped != 1 {
		t.Errorf("unexpected counts: %+v", list[0])
	}

	if _, err := store.Load("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(zerolog.Nop(), KindJSON, dir)
	if err != nil {
		t.Fatalf("Open(json) error: %v", err)
	}
	if _, ok := s.(*DiskStore); !ok {
		t.Errorf("expected *DiskStore, got %T", s)
	}

	s, err = Open(zerolog.Nop(), KindSQLite, filepath.Join(dir, "r.db"))
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	s.Close()

	if _, err := Open(zerolog.Nop(), "csv", dir); err == nil {
		t.Error("expected error for unknown kind")
	}
}
