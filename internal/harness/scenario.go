package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/faultline/internal/outcome"
)

// DefaultTimeout bounds a run when the scenario sets none.
const DefaultTimeout = 60 * time.Second

// Scenario describes one supervised guest run.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Command is the guest launcher: argv[0] and its arguments.
	Command []string `yaml:"command"`

	// Env adds variables to the guest's environment.
	Env map[string]string `yaml:"env,omitempty"`

	// Expect is the outcome the run must produce.
	Expect outcome.Outcome `yaml:"expect"`

	// Ident is the identifying line the guest writes before its check.
	Ident string `yaml:"ident"`

	Signal SignalSpec `yaml:"signal"`

	// Markers override the default pass and fail markers.
	Markers outcome.Markers `yaml:"markers,omitempty"`

	// Timeout bounds the run; defaults to DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Dir is the working directory for Command; set by LoadScenario to the
	// scenario file's directory.
	Dir string `yaml:"-"`
}

// SignalSpec describes how the guest's termination code reaches the host.
type SignalSpec struct {
	Mechanism     outcome.Mechanism `yaml:"mechanism"`
	outcome.Codes `yaml:",inline"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	scenario.Dir = filepath.Dir(path)
	// Resolve a relative launcher path against the scenario's directory.
	// Bare names ("qemu-system-x86_64") are left to PATH lookup.
	if bin := scenario.Command[0]; !filepath.IsAbs(bin) && filepath.Base(bin) != bin {
		scenario.Command[0] = filepath.Join(scenario.Dir, bin)
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML, applying defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	// Defaults the file may override.
	scenario := Scenario{
		Signal: SignalSpec{
			Mechanism: outcome.MechanismDebugExit,
			Codes:     outcome.DefaultCodes(),
		},
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Markers = scenario.Markers.WithDefaults()
	if scenario.Timeout == 0 {
		scenario.Timeout = DefaultTimeout
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Command) == 0 || s.Command[0] == "" {
		return fmt.Errorf("command is required and must be non-empty")
	}

	if s.Expect != outcome.Pass && s.Expect != outcome.Fail {
		return fmt.Errorf("expect is required (pass or fail)")
	}

	if s.Ident == "" {
		return fmt.Errorf("ident is required")
	}

	if _, err := outcome.ParseMechanism(string(s.Signal.Mechanism)); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	if err := s.Signal.Codes.Validate(s.Signal.Mechanism); err != nil {
		return fmt.Errorf("signal: %w", err)
	}

	if s.Markers.Pass == s.Markers.Fail {
		return fmt.Errorf("markers: pass and fail markers must differ")
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}
