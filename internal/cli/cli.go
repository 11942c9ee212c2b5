// Package cli parses gridkernel command-line arguments.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Version is the gridkernel release printed by -version.
const Version = "v0.0.1-dev"

// Backend names accepted by -backend.
const (
	BackendCPU    = "cpu"
	BackendWebGPU = "webgpu"
)

// ExitError is an error carrying a process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config holds the parsed command line.
type Config struct {
	Path        string
	Backend     string
	Workers     int
	LogLevel    string
	LogFormat   string
	PrintSource bool
}

// Parse processes command-line arguments. It returns the parsed Config, a
// boolean reporting that the program should exit cleanly (help or version
// was printed), or an *ExitError for invalid usage.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("gridkernel", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridkernel - run a grid kernel described in an HCL file.

Usage:
  gridkernel [options] FILE.hcl

Options:
`)
		flagSet.PrintDefaults()
	}

	backendFlag := flagSet.String("backend", BackendCPU, "Execution backend. Options: 'cpu' or 'webgpu'.")
	workersFlag := flagSet.Int("workers", 0, "Number of CPU backend workers. 0 uses all cores.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	printSourceFlag := flagSet.Bool("print-source", false, "Print the generated kernel source before the output grid.")
	versionFlag := flagSet.Bool("version", false, "Print the version and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *versionFlag {
		fmt.Fprintf(output, "gridkernel %s\n", Version)
		return nil, true, nil
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "missing kernel file"}
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "expected exactly one kernel file"}
	}

	backend := strings.ToLower(*backendFlag)
	if backend != BackendCPU && backend != BackendWebGPU {
		return nil, false, &ExitError{Code: 2, Message: "invalid backend: must be 'cpu' or 'webgpu'"}
	}
	if *workersFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Config{
		Path:        flagSet.Arg(0),
		Backend:     backend,
		Workers:     *workersFlag,
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		PrintSource: *printSourceFlag,
	}, false, nil
}

// NewLogger creates a logger for the configured level and format. It does
// not set the global logger.
func NewLogger(cfg *Config, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
