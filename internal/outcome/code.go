package outcome

import "fmt"

// Code is a termination code emitted to the supervising process.
type Code uint8

const (
	// Success is signaled when the test passed.
	Success Code = 0x10
	// Failed is signaled when the test failed.
	Failed Code = 0x11
)

// Mechanism names how a Code leaves the guest.
type Mechanism string

const (
	// MechanismDebugExit writes the code to the isa-debug-exit port.
	// QEMU then exits with status (code << 1) | 1.
	MechanismDebugExit Mechanism = "isa-debug-exit"
	// MechanismProcessExit exits the process with the code as status.
	MechanismProcessExit Mechanism = "exit"
	// MechanismPowerOff powers the guest off; the status carries no code.
	MechanismPowerOff Mechanism = "poweroff"
	// MechanismNone emits nothing and idles.
	MechanismNone Mechanism = "none"
)

// ValidMechanisms lists the accepted mechanism names.
var ValidMechanisms = []Mechanism{
	MechanismDebugExit,
	MechanismProcessExit,
	MechanismPowerOff,
	MechanismNone,
}

// ParseMechanism validates a mechanism name.
func ParseMechanism(s string) (Mechanism, error) {
	for _, m := range ValidMechanisms {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mechanism %q: must be one of %v", s, ValidMechanisms)
}

// Codes is the pair of termination codes used by a run.
type Codes struct {
	Success Code `yaml:"success_code" json:"success_code"`
	Failed  Code `yaml:"failed_code" json:"failed_code"`
}

// DefaultCodes returns the isa-debug-exit convention codes.
func DefaultCodes() Codes {
	return Codes{Success: Success, Failed: Failed}
}

// Validate checks that the two codes can be told apart by the host under
// the given mechanism.
func (c Codes) Validate(m Mechanism) error {
	if c.Success == c.Failed {
		return fmt.Errorf("success and failed codes must differ (both %#x)", uint8(c.Success))
	}
	if m == MechanismDebugExit && (c.Success > 0x7f || c.Failed > 0x7f) {
		return fmt.Errorf("isa-debug-exit codes must be <= 0x7f to fit an exit status")
	}
	return nil
}

// For returns the code for an outcome.
func (c Codes) For(o Outcome) Code {
	if o == Pass {
		return c.Success
	}
	return c.Failed
}

// ExitStatus returns the status the host observes when code is emitted via
// m. The second result is false when m does not carry codes.
func ExitStatus(code Code, m Mechanism) (int, bool) {
	switch m {
	case MechanismDebugExit:
		return int(code)<<1 | 1, true
	case MechanismProcessExit:
		return int(code), true
	default:
		return 0, false
	}
}

// Decode maps a host-observed exit status back to an Outcome. It returns
// Unknown when the status matches neither code.
func (c Codes) Decode(status int, m Mechanism) Outcome {
	if s, ok := ExitStatus(c.Success, m); ok && s == status {
		return Pass
	}
	if s, ok := ExitStatus(c.Failed, m); ok && s == status {
		return Fail
	}
	return Unknown
}
