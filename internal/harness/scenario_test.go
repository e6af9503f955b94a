package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faultline/internal/outcome"
)

const validScenario = `
name: should_fail
description: "0 == 1 must fault"
command: ["./should-panic"]
expect: pass
ident: "should_panic::should_fail..."
`

func TestParseScenario_Defaults(t *testing.T) {
	sc, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "should_fail", sc.Name)
	assert.Equal(t, outcome.Pass, sc.Expect)
	assert.Equal(t, outcome.MechanismDebugExit, sc.Signal.Mechanism)
	assert.Equal(t, outcome.DefaultCodes(), sc.Signal.Codes)
	assert.Equal(t, outcome.DefaultMarkers(), sc.Markers)
	assert.Equal(t, DefaultTimeout, sc.Timeout)
}

func TestParseScenario_Overrides(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: mutated
description: "1 == 1 must be reported as a failure"
command: [should-panic, --mutated]
env:
  FAULTLINE_SIGNAL: exit
expect: fail
ident: "should_panic::should_fail..."
signal:
  mechanism: exit
  success_code: 0
  failed_code: 1
markers:
  fail: "FAILED"
timeout: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, outcome.Fail, sc.Expect)
	assert.Equal(t, outcome.MechanismProcessExit, sc.Signal.Mechanism)
	assert.Equal(t, outcome.Code(0), sc.Signal.Success)
	assert.Equal(t, outcome.Code(1), sc.Signal.Failed)
	assert.Equal(t, "[ok]", sc.Markers.Pass)
	assert.Equal(t, "FAILED", sc.Markers.Fail)
	assert.Equal(t, 5*time.Second, sc.Timeout)
	assert.Equal(t, map[string]string{"FAULTLINE_SIGNAL": "exit"}, sc.Env)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown field", validScenario + "retries: 3\n", "failed to parse YAML"},
		{"missing name", "description: d\ncommand: [x]\nexpect: pass\nident: i\n", "name is required"},
		{"missing description", "name: n\ncommand: [x]\nexpect: pass\nident: i\n", "description is required"},
		{"missing command", "name: n\ndescription: d\nexpect: pass\nident: i\n", "command is required"},
		{"missing expect", "name: n\ndescription: d\ncommand: [x]\nident: i\n", "expect is required"},
		{"bad expect", "name: n\ndescription: d\ncommand: [x]\nexpect: maybe\nident: i\n", "failed to parse YAML"},
		{"missing ident", "name: n\ndescription: d\ncommand: [x]\nexpect: pass\n", "ident is required"},
		{"bad mechanism", validScenario + "signal:\n  mechanism: hypercall\n", "signal"},
		{"equal codes", validScenario + "signal:\n  success_code: 1\n  failed_code: 1\n", "must differ"},
		{"equal markers", validScenario + "markers:\n  pass: X\n  fail: X\n", "markers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesRelativeCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "should_fail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, dir, sc.Dir)
	assert.Equal(t, filepath.Join(dir, "should-panic"), sc.Command[0])
}

func TestLoadScenario_BareCommandUsesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qemu.yaml")
	content := `
name: qemu
description: "boot under qemu"
command: [qemu-system-x86_64, -display, none]
expect: pass
ident: "should_panic::should_fail..."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "qemu-system-x86_64", sc.Command[0])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Examples(t *testing.T) {
	for _, name := range []string{"should_fail.yaml", "should_fail_mutated.yaml"} {
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
			require.NoError(t, err)
			assert.Equal(t, outcome.MechanismDebugExit, sc.Signal.Mechanism)
		})
	}
}
