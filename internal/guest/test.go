package guest

import "fmt"

// Test is a single should-fault test.
type Test struct {
	// Suite groups the test; usually the guest binary's name.
	Suite string
	// Name identifies the test within the suite.
	Name string
	// Body must contain exactly one triggering check that fails by
	// construction, e.g. check.Equal(0, 1).
	Body func()
}

// Ident is the identifying line written before the body runs.
func (t Test) Ident() string {
	if t.Suite == "" {
		return fmt.Sprintf("%s...", t.Name)
	}
	return fmt.Sprintf("%s::%s...", t.Suite, t.Name)
}

func (t Test) validate() error {
	if t.Name == "" {
		return fmt.Errorf("test name is required")
	}
	if t.Body == nil {
		return fmt.Errorf("test %s: body is required", t.Name)
	}
	return nil
}
