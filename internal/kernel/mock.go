package kernel

import (
	"errors"
	"fmt"

	"github.com/born-ml/gridkernel/internal/params"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend records every call it receives and never runs anything.
// It is meant for tests of code that drives a Session.
type MockBackend struct {
	// CompileErr, when set, is returned by every Compile call.
	CompileErr error
	// InvokeErr, when set, is returned by every Invoke call.
	InvokeErr error

	Contexts      int
	Compiles      int
	Invokes       int
	Sources       []string
	Formals       [][]string
	Args          [][]params.Value
	Kernels       []*MockKernel
	Results       []*MockResult
	LastShape     [2]int
	ContextClosed bool
}

// MockKernel is the kernel handle returned by MockBackend.
type MockKernel struct {
	Source   string
	Formals  []string
	Released bool
	width    int
	height   int
}

// Release implements Kernel.
func (k *MockKernel) Release() {
	k.Released = true
}

// MockResult is a zero-filled result returned by MockBackend.
type MockResult struct {
	width, height int
	Released      bool
}

// Width implements Result.
func (r *MockResult) Width() int { return r.width }

// Height implements Result.
func (r *MockResult) Height() int { return r.height }

// Read implements Result.
func (r *MockResult) Read() ([]float32, error) {
	if r.Released {
		return nil, ErrResultReleased
	}
	return make([]float32, r.width*r.height), nil
}

// Release implements Result.
func (r *MockResult) Release() {
	r.Released = true
}

type mockContext struct {
	backend *MockBackend
}

func (c *mockContext) Release() {
	c.backend.ContextClosed = true
}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// CreateContext implements Backend.
func (m *MockBackend) CreateContext() (Context, error) {
	m.Contexts++
	return &mockContext{backend: m}, nil
}

// Compile implements Backend.
func (m *MockBackend) Compile(_ Context, source string, formals []string) (Kernel, error) {
	m.Compiles++
	m.Sources = append(m.Sources, source)
	m.Formals = append(m.Formals, append([]string(nil), formals...))
	if m.CompileErr != nil {
		return nil, m.CompileErr
	}
	k := &MockKernel{Source: source, Formals: formals}
	m.Kernels = append(m.Kernels, k)
	return k, nil
}

// SetOutputShape implements Backend.
func (m *MockBackend) SetOutputShape(k Kernel, width, height int) error {
	mk, ok := k.(*MockKernel)
	if !ok {
		return fmt.Errorf("mock: foreign kernel %T", k)
	}
	if mk.Released {
		return errors.New("mock: kernel released")
	}
	mk.width, mk.height = width, height
	m.LastShape = [2]int{width, height}
	return nil
}

// Invoke implements Backend.
func (m *MockBackend) Invoke(k Kernel, args []params.Value) (Result, error) {
	m.Invokes++
	m.Args = append(m.Args, args)
	if m.InvokeErr != nil {
		return nil, m.InvokeErr
	}
	mk, ok := k.(*MockKernel)
	if !ok {
		return nil, fmt.Errorf("mock: foreign kernel %T", k)
	}
	if mk.Released {
		return nil, errors.New("mock: kernel released")
	}
	r := &MockResult{width: mk.width, height: mk.height}
	m.Results = append(m.Results, r)
	return r, nil
}
