// Package config loads the guest configuration: where the textual sink
// goes, which termination mechanism carries the code, and the marker
// strings. Files are YAML, decoded strictly and validated against an
// embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/faultline/internal/outcome"
	"github.com/roach88/faultline/internal/terminate"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables read by FromEnv.
const (
	EnvConfig   = "FAULTLINE_CONFIG"
	EnvSignal   = "FAULTLINE_SIGNAL"
	EnvSinks    = "FAULTLINE_SINKS"
	EnvLogLevel = "FAULTLINE_LOG_LEVEL"
)

// SinkConsole names the process's standard output in Sinks.
const SinkConsole = "console"

// Config is the guest configuration.
type Config struct {
	// Sinks lists textual sink targets: "console" or a device path.
	Sinks []string `yaml:"sinks" json:"sinks"`

	Signal Signal `yaml:"signal" json:"signal"`

	Markers outcome.Markers `yaml:"markers" json:"markers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Signal configures the termination signal.
type Signal struct {
	Mechanism   string `yaml:"mechanism" json:"mechanism"`
	Port        string `yaml:"port" json:"port"`
	IOBase      int64  `yaml:"iobase" json:"iobase"`
	SuccessCode int    `yaml:"success_code" json:"success_code"`
	FailedCode  int    `yaml:"failed_code" json:"failed_code"`
}

// Default returns the configuration used when no file is given: console
// sink, isa-debug-exit at 0xf4 with codes 0x10/0x11.
func Default() Config {
	return Config{
		Sinks: []string{SinkConsole},
		Signal: Signal{
			Mechanism:   string(outcome.MechanismDebugExit),
			Port:        terminate.DefaultPortDevice,
			IOBase:      terminate.DefaultIOBase,
			SuccessCode: int(outcome.Success),
			FailedCode:  int(outcome.Failed),
		},
		Markers:  outcome.DefaultMarkers(),
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides from getenv, and validates the result. An empty path means
// defaults only.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if getenv != nil {
		applyEnv(&cfg, getenv)
	}
	cfg.Markers = cfg.Markers.WithDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// FromEnv loads the file named by FAULTLINE_CONFIG with environment
// overrides.
func FromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfig), os.Getenv)
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvSignal); v != "" {
		cfg.Signal.Mechanism = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvSinks); v != "" {
		var sinks []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sinks = append(sinks, s)
			}
		}
		cfg.Sinks = sinks
	}
}

// Validate checks cfg against the CUE schema and the code range rules.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}

	mech := outcome.Mechanism(cfg.Signal.Mechanism)
	if err := cfg.Codes().Validate(mech); err != nil {
		return err
	}
	return nil
}

// Mechanism returns the configured termination mechanism.
func (c *Config) Mechanism() outcome.Mechanism {
	return outcome.Mechanism(c.Signal.Mechanism)
}

// Codes returns the configured termination codes.
func (c *Config) Codes() outcome.Codes {
	return outcome.Codes{
		Success: outcome.Code(c.Signal.SuccessCode),
		Failed:  outcome.Code(c.Signal.FailedCode),
	}
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
