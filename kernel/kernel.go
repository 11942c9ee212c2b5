// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kernel

import (
	"context"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/params"
)

// Type aliases for public API

// Node is an immutable expression node.
type Node = graph.Node

// Op identifies the kind of a Node.
type Op = graph.Op

// Operation kinds.
const (
	OpElementFetch Op = graph.OpElementFetch
	OpAdd          Op = graph.OpAdd
	OpMultiply     Op = graph.OpMultiply
	OpConstant     Op = graph.OpConstant
	OpReference    Op = graph.OpReference
)

// Session owns registered inputs and at most one compiled kernel.
type Session = kernel.Session

// State is the dispatch state of a Session.
type State = kernel.State

// Session states.
const (
	Uninitialized State = kernel.Uninitialized
	Ready         State = kernel.Ready
)

// Backend compiles and runs generated kernel source.
type Backend = kernel.Backend

// Result is the output of one dispatch.
type Result = kernel.Result

// CompileError carries the backend diagnostic for rejected kernel source.
type CompileError = kernel.CompileError

// Formal describes one kernel parameter.
type Formal = params.Formal

// Errors returned by Session operations.
var (
	ErrShapeMismatch           = kernel.ErrShapeMismatch
	ErrCompileFailed           = kernel.ErrCompileFailed
	ErrKernelNotConfigured     = kernel.ErrKernelNotConfigured
	ErrBackendInvocationFailed = kernel.ErrBackendInvocationFailed
	ErrResultReleased          = kernel.ErrResultReleased
)

// NewSession creates a session bound to backend. The session logs through
// the slog.Logger carried by ctx, or slog.Default().
func NewSession(ctx context.Context, backend Backend) (*Session, error) {
	return kernel.NewSession(ctx, backend)
}

// Fetch reads source[row][col].
func Fetch(source, row, col *Node) *Node {
	return graph.ElementFetch(source, row, col)
}

// Add returns left + right.
func Add(left, right *Node) *Node {
	return graph.Add(left, right)
}

// Multiply returns left * right.
func Multiply(left, right *Node) *Node {
	return graph.Multiply(left, right)
}

// Constant returns a numeric literal. Whole values render as integers and
// may be used in fetch indices.
func Constant(v float32) *Node {
	return graph.Constant(v)
}

// Reference refers to a kernel parameter by name.
func Reference(name string) *Node {
	return graph.Reference(name)
}

// Row refers to the row of the cell being computed.
func Row() *Node {
	return graph.Row()
}

// Col refers to the column of the cell being computed.
func Col() *Node {
	return graph.Col()
}
