package outcome

import (
	"fmt"
	"strings"
)

// Outcome is the result of a single should-fault run.
type Outcome int

const (
	// Unknown is the zero value; it is never reported.
	Unknown Outcome = iota
	// Pass means the test body faulted.
	Pass
	// Fail means the test body returned without faulting.
	Fail
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Parse converts "pass" or "fail" (case-insensitive) into an Outcome.
func Parse(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return Pass, nil
	case "fail":
		return Fail, nil
	default:
		return Unknown, fmt.Errorf("invalid outcome %q: must be pass or fail", s)
	}
}

// MarshalText encodes the outcome as its string form.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "pass", "fail" or "unknown".
func (o *Outcome) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*o = Unknown
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalYAML encodes the outcome as its string form.
func (o Outcome) MarshalYAML() (any, error) {
	return o.String(), nil
}

// UnmarshalYAML decodes "pass" or "fail".
func (o *Outcome) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Markers are the terminal lines written to the textual sink.
type Markers struct {
	Pass string `yaml:"pass" json:"pass"`
	Fail string `yaml:"fail" json:"fail"`
}

// DefaultMarkers returns the stock pass and fail markers.
func DefaultMarkers() Markers {
	return Markers{
		Pass: "[ok]",
		Fail: "[test did not panic]",
	}
}

// For returns the marker line for an outcome.
func (m Markers) For(o Outcome) string {
	if o == Pass {
		return m.Pass
	}
	return m.Fail
}

// WithDefaults fills empty markers from DefaultMarkers.
func (m Markers) WithDefaults() Markers {
	d := DefaultMarkers()
	if m.Pass == "" {
		m.Pass = d.Pass
	}
	if m.Fail == "" {
		m.Fail = d.Fail
	}
	return m
}
