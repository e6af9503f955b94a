package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faultline/internal/store"
	"github.com/roach88/faultline/internal/testutil"
)

// executeTest runs the test command with sequential run IDs and returns its
// stdout and error.
func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newTestCommand(&TestOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: testutil.NewSequentialIDGenerator(""),
	})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nbogus: 1\n"), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"should_fail.yaml", "should_fail_mutated.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "should_fail.golden"), nil, 0644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = findScenarioFiles(dir, "*_mutated")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "should_fail_mutated.yml", filepath.Base(files[0]))

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "should_fail.golden"),
		goldenFilePath(filepath.Join("scenarios", "should_fail.yaml")))
}

func TestTestCommandSupervisesGuests(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns guest processes")
	}
	dir := t.TempDir()
	writeScenario(t, dir, "should_fail", "pass", "pass")
	writeScenario(t, dir, "should_fail_mutated", "mutated", "fail")

	out, err := executeTest(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ should_fail (pass, exit 16)")
	assert.Contains(t, out, "✓ should_fail_mutated (fail, exit 17)")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommandUnexpectedOutcomeJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns guest processes")
	}
	dir := t.TempDir()
	writeScenario(t, dir, "mutated_expected_pass", "mutated", "pass")

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)

	sc := resp.Data.Scenarios[0]
	assert.Equal(t, "run-1", sc.RunID)
	assert.False(t, sc.Pass)
	assert.Equal(t, "fail", sc.Observed)
	assert.Equal(t, 17, sc.ExitStatus)
	assert.Contains(t, sc.Errors, "E_UNEXPECTED_OUTCOME: expected pass, observed fail (line 2)")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns guest processes")
	}
	dir := t.TempDir()
	writeScenario(t, dir, "should_fail", "pass", "pass")

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "golden updated")

	goldenPath := filepath.Join(dir, "golden", "should_fail.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"errors":[],"exit_status":16,"expected":"pass","observed":"pass","pass":true,"scenario":"should_fail","transcript":["should_panic::should_fail...","[ok]"]}`,
		string(data))

	out, err = executeTest(t, "text", dir)
	require.NoError(t, err, out)

	// A stale golden file fails the scenario even though the verdict passed.
	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandRecordsRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns guest processes")
	}
	dir := t.TempDir()
	writeScenario(t, dir, "should_fail", "pass", "pass")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, err := executeTest(t, "text", dir, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "should_fail", run.Scenario)
	assert.True(t, run.Pass)
	assert.Equal(t, 16, run.ExitStatus)
	assert.Equal(t, []string{"should_panic::should_fail...", "[ok]"}, run.Transcript)
}
