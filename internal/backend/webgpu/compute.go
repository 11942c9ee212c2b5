//go:build windows

package webgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/params"
	"github.com/go-webgpu/webgpu/wgpu"
)

var (
	outputUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	inputUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
)

// buildPipeline compiles WGSL source into a shader module and a compute
// pipeline with an auto-derived layout.
func (b *Backend) buildPipeline(source string) (shader *wgpu.ShaderModule, pipeline *wgpu.ComputePipeline, err error) {
	// Shader validation failures surface as panics from the native layer.
	defer func() {
		if r := recover(); r != nil {
			if shader != nil {
				shader.Release()
			}
			shader, pipeline = nil, nil
			err = fmt.Errorf("%v", r)
		}
	}()

	shader = b.device.CreateShaderModuleWGSL(source)
	if shader == nil {
		return nil, nil, errors.New("shader module creation failed")
	}
	pipeline = b.device.CreateComputePipelineSimple(nil, shader, "main")
	if pipeline == nil {
		shader.Release()
		return nil, nil, errors.New("compute pipeline creation failed")
	}
	return shader, pipeline, nil
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment for struct fields.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// Invoke implements kernel.Backend.
func (b *Backend) Invoke(k kernel.Kernel, args []params.Value) (res kernel.Result, err error) {
	gk, err := asKernel(k)
	if err != nil {
		return nil, err
	}
	if err := kernel.CheckArgs(gk.formals, args); err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}

	width, height := gk.width, gk.height
	if width == 0 || height == 0 {
		return &Result{width: width, height: height, data: []float32{}}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("webgpu: dispatch failed: %v", r)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]wgpu.BindGroupEntry, 0, len(args)+2)
	for i, a := range args {
		data := encodeValue(a)
		buf := b.createBuffer(data, inputUsage)
		defer buf.Release()
		//nolint:gosec // G115: binding index is bounded by the argument count
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(data))))
	}

	//nolint:gosec // G115: output dimensions are non-negative
	outputSize := uint64(width * height * 4)
	output := b.bufferPool.Acquire(outputSize, outputUsage)
	defer b.bufferPool.Release(output, outputSize, outputUsage)

	shape := make([]byte, 16)
	//nolint:gosec // G115: output dimensions are non-negative
	binary.LittleEndian.PutUint32(shape[0:4], uint32(width))
	//nolint:gosec // G115: output dimensions are non-negative
	binary.LittleEndian.PutUint32(shape[4:8], uint32(height))
	bufferShape := b.createUniformBuffer(shape)
	defer bufferShape.Release()

	n := uint32(len(args)) //nolint:gosec // G115: argument count is small
	entries = append(entries,
		wgpu.BufferBindingEntry(n, output, 0, outputSize),
		wgpu.BufferBindingEntry(n+1, bufferShape, 0, 16),
	)

	bindGroupLayout := gk.pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(gk.pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(workgroups(width), workgroups(height), 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	raw, err := b.readBuffer(output, outputSize)
	if err != nil {
		return nil, err
	}
	return &Result{width: width, height: height, data: decodeFloats(raw)}, nil
}

// workgroups returns ceil(n / WorkgroupSize).
func workgroups(n int) uint32 {
	//nolint:gosec // G115: n is a non-negative grid dimension
	return uint32((n + kernel.WorkgroupSize - 1) / kernel.WorkgroupSize)
}

// encodeValue lays out a parameter value as little-endian f32 words.
func encodeValue(v params.Value) []byte {
	if v.Kind == params.Scalar {
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, math.Float32bits(v.Scalar))
		return out
	}
	out := make([]byte, len(v.Buffer.Data)*4)
	for i, f := range v.Buffer.Data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
