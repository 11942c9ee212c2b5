// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go backend for grid kernels.
//
// The backend compiles the WGSL source generated by kernel sessions into an
// evaluator for the per-cell expression and runs it over the output grid on
// a goroutine pool. It needs no GPU and no CGO.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gridkernel/backend/cpu"
//	    "github.com/born-ml/gridkernel/kernel"
//	)
//
//	func main() {
//	    s, err := kernel.NewSession(context.Background(), cpu.New())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer s.Close()
//	}
package cpu

import (
	internalcpu "github.com/born-ml/gridkernel/internal/backend/cpu"
	"github.com/born-ml/gridkernel/internal/parallel"
	"github.com/born-ml/gridkernel/kernel"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements kernel.Backend.
var _ kernel.Backend = (*Backend)(nil)

// New creates a new CPU backend using all available cores.
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend limited to n worker goroutines.
// n <= 1 evaluates cells sequentially.
func NewWithWorkers(n int) *Backend {
	return internalcpu.NewWithConfig(parallel.DefaultConfig().WithWorkers(n))
}
