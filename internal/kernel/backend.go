// Package kernel implements kernel sessions: parameter binding, source
// generation, compilation and grid dispatch against an execution backend.
package kernel

import "github.com/born-ml/gridkernel/internal/params"

// Backend is the execution engine that compiles and runs generated kernel source.
//
// Implementations:
//   - cpu: pure Go interpreter of the generated source
//   - webgpu: WGSL compute pipelines via go-webgpu (windows)
type Backend interface {
	// Name returns the backend name.
	Name() string

	// CreateContext creates the device context kernels are compiled against.
	CreateContext() (Context, error)

	// Compile compiles a complete kernel source unit. formals lists the kernel's
	// parameter names in binding order.
	Compile(ctx Context, source string, formals []string) (Kernel, error)

	// SetOutputShape sizes the kernel's output grid for the next Invoke.
	SetOutputShape(k Kernel, width, height int) error

	// Invoke runs the kernel once per output cell. args are positional and
	// correspond element-for-element to the formals given to Compile.
	Invoke(k Kernel, args []params.Value) (Result, error)
}

// Context is a backend device context.
type Context interface {
	Release()
}

// Kernel is a compiled kernel handle owned by a Session.
type Kernel interface {
	Release()
}

// Result is the output of one dispatch.
// It stays valid until the next dispatch on the same session or until the
// session is closed.
type Result interface {
	// Width and Height return the output grid shape.
	Width() int
	Height() int

	// Read copies the output to host memory in row-major order.
	Read() ([]float32, error)

	// Release frees backend resources held by the result.
	Release()
}
