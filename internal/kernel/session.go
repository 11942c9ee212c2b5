package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/gridkernel/internal/ctxlog"
	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/params"
	"github.com/google/uuid"
)

// State is the dispatch state of a Session.
type State int

// Session states.
const (
	// Uninitialized means no kernel is compiled.
	Uninitialized State = iota
	// Ready means a kernel is compiled and Compute2D may be called.
	Ready
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Session owns one parameter table and at most one compiled kernel.
//
// Inputs are registered first, then SetComputeGraph compiles a kernel whose
// formal parameters are the registered inputs in registration order, then
// Compute2D dispatches it. Registering another input after compilation
// invalidates the kernel; call SetComputeGraph again.
//
// A Session is not safe for concurrent use.
type Session struct {
	id      string
	backend Backend
	ctx     Context
	logger  *slog.Logger

	table  *params.Table
	kernel Kernel
	graph  *graph.Node
	source string
	result Result
}

// NewSession creates a session bound to backend.
// The logger is taken from ctx (see ctxlog).
func NewSession(ctx context.Context, backend Backend) (*Session, error) {
	if backend == nil {
		return nil, errors.New("kernel: nil backend")
	}
	devCtx, err := backend.CreateContext()
	if err != nil {
		return nil, fmt.Errorf("kernel: create %s context: %w", backend.Name(), err)
	}

	id := uuid.New().String()
	s := &Session{
		id:      id,
		backend: backend,
		ctx:     devCtx,
		logger:  ctxlog.FromContext(ctx).With("session", id, "backend", backend.Name()),
		table:   params.NewTable(),
	}
	s.logger.Debug("Session created.")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current dispatch state.
func (s *Session) State() State {
	if s.kernel == nil {
		return Uninitialized
	}
	return Ready
}

// Source returns the last source unit submitted to the backend.
func (s *Session) Source() string {
	return s.source
}

// Graph returns the graph of the compiled kernel, or nil.
func (s *Session) Graph() *graph.Node {
	if s.kernel == nil {
		return nil
	}
	return s.graph
}

// Params returns the formal parameter list in registration order.
func (s *Session) Params() []params.Formal {
	return s.table.Finalize()
}

// RegisterScalar registers a scalar input and returns its parameter name.
func (s *Session) RegisterScalar(v float32) string {
	s.invalidate("scalar registered after compile")
	name := s.table.RegisterScalar(v)
	s.logger.Debug("Registered scalar input.", "name", name, "value", v)
	return name
}

// RegisterBuffer registers a width x height row-major buffer and returns its
// parameter name. A shape mismatch leaves the session unchanged.
func (s *Session) RegisterBuffer(data []float32, width, height int) (string, error) {
	if err := params.CheckShape(len(data), width, height); err != nil {
		return "", err
	}
	s.invalidate("buffer registered after compile")
	name, err := s.table.RegisterBuffer(data, width, height)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Registered buffer input.", "name", name, "width", width, "height", height)
	return name, nil
}

// Input registers a scalar input and returns a reference to it.
func (s *Session) Input(v float32) *graph.Node {
	return graph.Reference(s.RegisterScalar(v))
}

// Input2D registers a buffer input and returns a reference to it.
func (s *Session) Input2D(data []float32, width, height int) (*graph.Node, error) {
	name, err := s.RegisterBuffer(data, width, height)
	if err != nil {
		return nil, err
	}
	return graph.Reference(name), nil
}

// SetComputeGraph renders root, wraps it into a kernel source unit over the
// registered inputs and compiles it. The new kernel replaces any previous one.
// On failure the session is left without a kernel.
func (s *Session) SetComputeGraph(root *graph.Node) error {
	s.releaseKernel()

	if root == nil {
		return &CompileError{Backend: s.backend.Name(), Diagnostic: "nil compute graph"}
	}

	if missing := s.unregistered(root); len(missing) > 0 {
		s.logger.Debug("Graph references unregistered names.", "names", missing)
	}

	formals := s.table.Finalize()
	src := EmitSource(s.id, root.Render(), formals)
	s.source = src

	k, err := s.backend.Compile(s.ctx, src, s.table.Names())
	if err != nil {
		s.logger.Warn("Kernel compilation failed.", "error", err)
		var ce *CompileError
		if errors.As(err, &ce) {
			if ce.Source == "" {
				ce.Source = src
			}
			return ce
		}
		return &CompileError{Backend: s.backend.Name(), Diagnostic: err.Error(), Source: src}
	}

	s.kernel = k
	s.graph = root
	s.logger.Debug("Kernel compiled.", "params", len(formals), "source_bytes", len(src))
	return nil
}

// Compute2D runs the compiled kernel over a width x height output grid.
// The returned Result is valid until the next Compute2D or Close.
func (s *Session) Compute2D(width, height int) (Result, error) {
	if s.kernel == nil {
		return nil, ErrKernelNotConfigured
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: output grid %dx%d", ErrShapeMismatch, width, height)
	}

	s.releaseResult()

	if err := s.backend.SetOutputShape(s.kernel, width, height); err != nil {
		return nil, fmt.Errorf("%w: set output shape: %w", ErrBackendInvocationFailed, err)
	}
	res, err := s.backend.Invoke(s.kernel, s.table.Values())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendInvocationFailed, err)
	}

	s.result = res
	s.logger.Debug("Kernel dispatched.", "width", width, "height", height)
	return res, nil
}

// Close releases the last result, the compiled kernel and the backend context.
func (s *Session) Close() {
	s.releaseResult()
	s.releaseKernel()
	if s.ctx != nil {
		s.ctx.Release()
		s.ctx = nil
	}
	s.logger.Debug("Session closed.")
}

// unregistered returns the names root references that are not in the table.
// The backend rejects them at compile time.
func (s *Session) unregistered(root *graph.Node) []string {
	var missing []string
	for _, name := range root.References() {
		if _, ok := s.table.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// invalidate drops the compiled kernel because the table is about to change.
func (s *Session) invalidate(reason string) {
	if s.kernel == nil {
		return
	}
	s.logger.Debug("Invalidating compiled kernel.", "reason", reason)
	s.releaseKernel()
}

func (s *Session) releaseKernel() {
	if s.kernel != nil {
		s.kernel.Release()
		s.kernel = nil
	}
	s.graph = nil
}

func (s *Session) releaseResult() {
	if s.result != nil {
		s.result.Release()
		s.result = nil
	}
}
