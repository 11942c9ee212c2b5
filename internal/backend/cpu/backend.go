// Package cpu implements a pure Go execution backend for grid kernels.
//
// The backend compiles the WGSL source units produced by kernel sessions by
// parsing their parameter bindings and the body of the cell function, checks
// them with WGSL typing rules, and evaluates the cell expression for every
// output cell on a goroutine pool.
package cpu

import (
	"errors"
	"fmt"

	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/parallel"
	"github.com/born-ml/gridkernel/internal/params"
)

// Verify that CPUBackend implements kernel.Backend.
var _ kernel.Backend = (*CPUBackend)(nil)

const backendName = "CPU"

// CPUBackend executes kernels on the host.
type CPUBackend struct {
	cfg parallel.Config
}

// New creates a new CPU backend using all available cores.
func New() *CPUBackend {
	return &CPUBackend{cfg: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{cfg: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return backendName
}

type cpuContext struct {
	cfg      parallel.Config
	released bool
}

func (c *cpuContext) Release() {
	c.released = true
}

// cpuKernel is a compiled kernel. Its output shape is set by SetOutputShape,
// so a kernel must not be dispatched concurrently.
type cpuKernel struct {
	prog     *program
	eval     f32Fn
	cfg      parallel.Config
	width    int
	height   int
	released bool
}

func (k *cpuKernel) Release() {
	k.released = true
	k.prog = nil
	k.eval = nil
}

// CreateContext implements kernel.Backend.
func (cpu *CPUBackend) CreateContext() (kernel.Context, error) {
	return &cpuContext{cfg: cpu.cfg}, nil
}

// Compile implements kernel.Backend.
func (cpu *CPUBackend) Compile(ctx kernel.Context, source string, formals []string) (kernel.Kernel, error) {
	c, ok := ctx.(*cpuContext)
	if !ok {
		return nil, fmt.Errorf("cpu: foreign context %T", ctx)
	}
	if c.released {
		return nil, errors.New("cpu: context released")
	}

	prog, err := parseProgram(source, formals)
	if err != nil {
		return nil, &kernel.CompileError{Backend: backendName, Diagnostic: err.Error(), Source: source}
	}
	return &cpuKernel{prog: prog, eval: lowerF32(prog.cell), cfg: c.cfg}, nil
}

// SetOutputShape implements kernel.Backend.
func (cpu *CPUBackend) SetOutputShape(k kernel.Kernel, width, height int) error {
	ck, err := asKernel(k)
	if err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("cpu: invalid output shape %dx%d", width, height)
	}
	ck.width, ck.height = width, height
	return nil
}

// Invoke implements kernel.Backend.
func (cpu *CPUBackend) Invoke(k kernel.Kernel, args []params.Value) (kernel.Result, error) {
	ck, err := asKernel(k)
	if err != nil {
		return nil, err
	}
	if err := kernel.CheckArgs(ck.prog.formals, args); err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}

	width, height := ck.width, ck.height
	out := make([]float32, width*height)
	eval := ck.eval
	parallel.ForGrid(width, height, func(row, col int) {
		//nolint:gosec // G115: grid coordinates are non-negative and bounded by int dimensions.
		env := cellEnv{row: uint32(row), col: uint32(col), args: args}
		out[row*width+col] = eval(&env)
	}, ck.cfg)

	return &Result{width: width, height: height, data: out}, nil
}

func asKernel(k kernel.Kernel) (*cpuKernel, error) {
	ck, ok := k.(*cpuKernel)
	if !ok {
		return nil, fmt.Errorf("cpu: foreign kernel %T", k)
	}
	if ck.released {
		return nil, errors.New("cpu: kernel released")
	}
	return ck, nil
}
