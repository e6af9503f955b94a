package check

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recoverAssertion(fn func()) (err *AssertionError) {
	defer func() {
		if r := recover(); r != nil {
			err = r.(*AssertionError)
		}
	}()
	fn()
	return nil
}

func TestEqual_PanicsOnMismatch(t *testing.T) {
	err := recoverAssertion(func() { Equal(0, 1) })
	require.NotNil(t, err)

	assert.Equal(t, "==", err.Op)
	assert.Equal(t, 0, err.Left)
	assert.Equal(t, 1, err.Right)
	assert.Equal(t, "check_test.go", filepath.Base(err.File))
	assert.Contains(t, err.Error(), "assertion `left == right` failed")
	assert.Contains(t, err.Error(), "left: 0")
	assert.Contains(t, err.Error(), "right: 1")
}

func TestEqual_HoldsOnMatch(t *testing.T) {
	assert.NotPanics(t, func() { Equal(1, 1) })
	assert.NotPanics(t, func() { Equal([]string{"a"}, []string{"a"}) })
}

func TestNotEqual(t *testing.T) {
	assert.NotPanics(t, func() { NotEqual("a", "b") })

	err := recoverAssertion(func() { NotEqual("a", "a") })
	require.NotNil(t, err)
	assert.Equal(t, "!=", err.Op)
}

func TestTrue(t *testing.T) {
	assert.NotPanics(t, func() { True(true) })

	err := recoverAssertion(func() { True(1 > 2) })
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "condition is false")
}
