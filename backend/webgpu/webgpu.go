//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for grid kernels.
//
// Generated kernels are WGSL compute shaders, so this backend hands them to
// the GPU unchanged. Example:
//
//	import (
//	    "github.com/born-ml/gridkernel/backend/cpu"
//	    "github.com/born-ml/gridkernel/backend/webgpu"
//	    "github.com/born-ml/gridkernel/kernel"
//	)
//
//	func main() {
//	    var backend kernel.Backend = cpu.New()
//	    if webgpu.IsAvailable() {
//	        gpu, err := webgpu.New()
//	        if err != nil {
//	            log.Fatal(err)
//	        }
//	        defer gpu.Release()
//	        backend = gpu
//	    }
//	    s, _ := kernel.NewSession(context.Background(), backend)
//	    defer s.Close()
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/gridkernel/internal/backend/webgpu"
	"github.com/born-ml/gridkernel/kernel"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements kernel.Backend.
var _ kernel.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources. Returns an error if
// WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
