package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/faultline/internal/outcome"
)

var testEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun returns a passing should_fail run recorded seq seconds
// after testEpoch.
func createTestRun(id, scenario string, seq int64) Run {
	return Run{
		ID:         id,
		Seq:        seq,
		Scenario:   scenario,
		Expected:   outcome.Pass,
		Observed:   outcome.Pass,
		Pass:       true,
		ExitStatus: 33,
		Transcript: []string{"should_panic::should_fail...", "[ok]"},
		RecordedAt: testEpoch.Add(time.Duration(seq) * time.Second),
	}
}
