// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel builds and dispatches per-cell grid computations.
//
// # Overview
//
// A computation is a tree of five node kinds: element fetch, add, multiply,
// constant and reference. A Session binds runtime inputs as kernel
// parameters, lowers the tree to WGSL compute shader source, compiles it on a
// Backend and runs it once per cell of a 2-D output grid.
//
// # Basic Usage
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
//
//	    pos, _ := s.Input2D(positions, 3, 10)
//	    vel, _ := s.Input2D(velocities, 3, 10)
//	    dt := s.Input(0.1)
//
//	    step := kernel.Add(
//	        kernel.Fetch(pos, kernel.Row(), kernel.Col()),
//	        kernel.Multiply(kernel.Fetch(vel, kernel.Row(), kernel.Col()), dt),
//	    )
//	    if err := s.SetComputeGraph(step); err != nil {
//	        log.Fatal(err)
//	    }
//	    res, err := s.Compute2D(3, 10)
//	}
//
// # Parameter order
//
// Inputs are registered before the graph is set. Each registration gets the
// name var<position>; the compiled kernel takes them in registration order.
// Registering another input after SetComputeGraph invalidates the kernel.
//
// # Grid coordinates
//
// Row() and Col() refer to the coordinates of the cell being computed.
// Buffers are row-major: Fetch(buf, Row(), Col()) reads data[row*width+col].
//
// Coordinates are unsigned integers in the generated kernel. They may be
// combined with whole non-negative constants inside fetch indices, as in
// Fetch(buf, Add(Row(), Constant(1)), Col()), but not used as cell values:
// SetComputeGraph(Add(Row(), Col())) fails with ErrCompileFailed. Reads
// outside a buffer yield 0 on the CPU backend; WebGPU clamps them.
//
// # Rendering
//
// Generated source has no grouping parentheses. A sum used as an operand of
// a product, as in Multiply(Add(a, b), c), renders as a + b * c; expand such
// products before building the tree.
package kernel
