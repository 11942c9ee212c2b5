package kernel

import (
	"errors"
	"fmt"

	"github.com/born-ml/gridkernel/internal/params"
)

var (
	// ErrShapeMismatch is returned when a buffer or grid shape is invalid.
	ErrShapeMismatch = params.ErrShapeMismatch

	// ErrCompileFailed is returned when the backend rejects generated source.
	ErrCompileFailed = errors.New("kernel compile failed")

	// ErrKernelNotConfigured is returned by Compute2D when no kernel is compiled.
	ErrKernelNotConfigured = errors.New("kernel not configured")

	// ErrBackendInvocationFailed is returned when the backend fails a dispatch.
	ErrBackendInvocationFailed = errors.New("backend invocation failed")

	// ErrResultReleased is returned when reading a result after it was released.
	ErrResultReleased = errors.New("result released")
)

// CompileError carries the backend diagnostic for a rejected kernel source.
type CompileError struct {
	Backend    string
	Diagnostic string
	Source     string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCompileFailed, e.Backend, e.Diagnostic)
}

// Unwrap makes errors.Is(err, ErrCompileFailed) hold.
func (e *CompileError) Unwrap() error {
	return ErrCompileFailed
}
