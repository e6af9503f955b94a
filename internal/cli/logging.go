package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// newLogger returns a text logger on the command's stderr. Verbose mode
// lowers the level to debug, which logs every transcript line as it arrives.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}
