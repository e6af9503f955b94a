package guest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faultline/internal/config"
	"github.com/roach88/faultline/internal/outcome"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOptions_SerialDeviceAndDebugExit(t *testing.T) {
	dir := t.TempDir()
	serial := filepath.Join(dir, "ttyS0")
	port := filepath.Join(dir, "port")
	require.NoError(t, os.WriteFile(serial, nil, 0644))
	require.NoError(t, os.WriteFile(port, make([]byte, 0x100), 0644))

	cfg := config.Default()
	cfg.Sinks = []string{serial, filepath.Join(dir, "missing")}
	cfg.Signal.Port = port

	opts, closers, err := Options(&cfg, discardLogger())
	require.NoError(t, err)
	require.Len(t, closers, 1)

	halt := append(opts, WithHalt(runtime.Goexit))
	done := make(chan struct{})
	go func() {
		defer close(done)
		Main(shouldFail(), halt...)
	}()
	<-done
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	transcript, err := os.ReadFile(serial)
	require.NoError(t, err)
	assert.Equal(t, "should_panic::should_fail...\n[ok]\n", string(transcript))

	ports, err := os.ReadFile(port)
	require.NoError(t, err)
	assert.Equal(t, byte(outcome.Success), ports[0xf4])
}

func TestOptions_NoUsableSinkFallsBackToConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks = []string{filepath.Join(t.TempDir(), "missing")}

	opts, closers, err := Options(&cfg, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.NotEmpty(t, opts)
}

func TestOptions_UnknownMechanism(t *testing.T) {
	cfg := config.Default()
	cfg.Signal.Mechanism = "hypercall"

	_, _, err := Options(&cfg, discardLogger())
	assert.Error(t, err)
}
