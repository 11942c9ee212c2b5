//go:build windows

// Package webgpu implements the WebGPU backend for grid kernels.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/params"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Verify that Backend implements kernel.Backend.
var _ kernel.Backend = (*Backend)(nil)

const backendName = "WebGPU"

// Backend compiles generated WGSL kernels into compute pipelines and
// dispatches them on the GPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Output buffers are recycled across dispatches.
	bufferPool *BufferPool

	mu sync.Mutex
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("webgpu: failed to get queue")
	}

	return &Backend{
		instance:   instance,
		adapter:    adapter,
		device:     device,
		queue:      queue,
		bufferPool: NewBufferPool(device),
	}, nil
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bufferPool != nil {
		b.bufferPool.Clear()
		b.bufferPool = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return backendName
}

// PoolStats reports output buffer reuse.
func (b *Backend) PoolStats() (allocated, released, hits, misses uint64, pooledCount int) {
	return b.bufferPool.Stats()
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// gpuContext scopes kernels to the backend's device.
type gpuContext struct {
	backend  *Backend
	released bool
}

func (c *gpuContext) Release() {
	c.released = true
}

// CreateContext implements kernel.Backend.
func (b *Backend) CreateContext() (kernel.Context, error) {
	if b.device == nil {
		return nil, errors.New("webgpu: backend released")
	}
	return &gpuContext{backend: b}, nil
}

// gpuKernel is a compiled compute pipeline together with the parameter
// layout it was compiled for.
type gpuKernel struct {
	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	formals  []params.Formal
	width    int
	height   int
	released bool
}

func (k *gpuKernel) Release() {
	if k.released {
		return
	}
	k.released = true
	if k.pipeline != nil {
		k.pipeline.Release()
		k.pipeline = nil
	}
	if k.shader != nil {
		k.shader.Release()
		k.shader = nil
	}
}

// Compile implements kernel.Backend.
func (b *Backend) Compile(ctx kernel.Context, source string, formals []string) (kernel.Kernel, error) {
	c, ok := ctx.(*gpuContext)
	if !ok || c.backend != b {
		return nil, fmt.Errorf("webgpu: foreign context %T", ctx)
	}
	if c.released {
		return nil, errors.New("webgpu: context released")
	}

	declared, err := kernel.ParseFormals(source)
	if err == nil {
		err = kernel.CheckFormalNames(declared, formals)
	}
	if err != nil {
		return nil, &kernel.CompileError{Backend: backendName, Diagnostic: err.Error(), Source: source}
	}

	shader, pipeline, err := b.buildPipeline(source)
	if err != nil {
		return nil, &kernel.CompileError{Backend: backendName, Diagnostic: err.Error(), Source: source}
	}
	return &gpuKernel{
		shader:   shader,
		pipeline: pipeline,
		formals:  declared,
	}, nil
}

// SetOutputShape implements kernel.Backend.
func (b *Backend) SetOutputShape(k kernel.Kernel, width, height int) error {
	gk, err := asKernel(k)
	if err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("webgpu: invalid output shape %dx%d", width, height)
	}
	gk.width, gk.height = width, height
	return nil
}

func asKernel(k kernel.Kernel) (*gpuKernel, error) {
	gk, ok := k.(*gpuKernel)
	if !ok {
		return nil, fmt.Errorf("webgpu: foreign kernel %T", k)
	}
	if gk.released {
		return nil, errors.New("webgpu: kernel released")
	}
	return gk, nil
}
