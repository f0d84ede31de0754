package manifest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tmcpro/docusign-exporter/internal/export"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLoadRun(t *testing.T) {
	s := openTestStore(t)

	started := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	from := started.AddDate(0, -1, 0)
	outcomes := []export.Outcome{
		{EnvelopeID: "env-1", OK: true, Bytes: 1024},
		{EnvelopeID: "env-2", OK: false, Err: "api error 500: boom"},
		{EnvelopeID: "env-3", OK: true, Bytes: 2048},
	}

	runID, err := s.RecordRun(started, from, started, 3, outcomes)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	run, err := s.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Discovered != 3 {
		t.Errorf("Discovered = %d, want 3", run.Discovered)
	}
	if run.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", run.Succeeded)
	}

	got, err := s.ListOutcomes(runID)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(got))
	}
	if got[1].EnvelopeID != "env-2" || got[1].OK || got[1].Err != "api error 500: boom" {
		t.Errorf("failed outcome = %+v", got[1])
	}
	if got[0].Bytes != 1024 {
		t.Errorf("bytes = %d, want 1024", got[0].Bytes)
	}
}

func TestRecordRunEmptyOutcomes(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.RecordRun(time.Now(), time.Now(), time.Now(), 0, nil)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := s.ListOutcomes(runID)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("outcomes = %d, want 0", len(got))
	}
}

func TestRunsAreDistinct(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.RecordRun(time.Now(), time.Now(), time.Now(), 1,
		[]export.Outcome{{EnvelopeID: "env-1", OK: true}})
	if err != nil {
		t.Fatalf("RecordRun 1: %v", err)
	}
	id2, err := s.RecordRun(time.Now(), time.Now(), time.Now(), 1,
		[]export.Outcome{{EnvelopeID: "env-1", OK: false, Err: "x"}})
	if err != nil {
		t.Fatalf("RecordRun 2: %v", err)
	}

	if id1 == id2 {
		t.Fatal("run ids must be unique")
	}

	got, err := s.ListOutcomes(id2)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(got) != 1 || got[0].OK {
		t.Errorf("second run outcomes = %+v", got)
	}
}
