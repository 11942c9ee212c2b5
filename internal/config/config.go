// Package config loads kernel description files.
//
// A description file is HCL. It declares the kernel's inputs in registration
// order and a kernel block whose compute attribute is an HCL expression
// lowered to a graph.Node tree:
//
//	input "buffer" "position" {
//	  width  = 3
//	  height = 2
//	  data   = [0, 0, 0, 1, 1, 1]
//	}
//
//	input "scalar" "dt" {
//	  value = 0.1
//	}
//
//	kernel {
//	  compute = position[grid_row][grid_col] + dt * 2
//	  width   = 3
//	  height  = 2
//	}
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/born-ml/gridkernel/internal/ctxlog"
	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Input kinds accepted as the first label of an input block.
const (
	KindScalar = "scalar"
	KindBuffer = "buffer"
)

// File is a decoded kernel description.
type File struct {
	Inputs []*Input     `hcl:"input,block"`
	Kernel *KernelBlock `hcl:"kernel,block"`

	// Filename is the name diagnostics refer to.
	Filename string
}

// Input declares one kernel input.
type Input struct {
	Kind string `hcl:"kind,label"`
	Name string `hcl:"name,label"`

	// Scalar inputs.
	Value *float32 `hcl:"value,optional"`

	// Buffer inputs.
	Width  *int      `hcl:"width,optional"`
	Height *int      `hcl:"height,optional"`
	Data   []float32 `hcl:"data,optional"`
}

// KernelBlock holds the per-cell computation and the output grid shape.
type KernelBlock struct {
	Compute hcl.Expression `hcl:"compute"`
	Width   int            `hcl:"width"`
	Height  int            `hcl:"height"`
}

// Load reads and validates the kernel description at path.
func Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading kernel file.", "path", path)

	hclFile, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	f, err := decode(hclFile, path)
	if err != nil {
		return nil, err
	}

	logger.Debug("Kernel file loaded.", "path", path, "inputs", len(f.Inputs), "width", f.Kernel.Width, "height", f.Kernel.Height)
	return f, nil
}

// Parse decodes and validates a kernel description held in memory.
func Parse(src []byte, filename string) (*File, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(hclFile, filename)
}

func decode(hclFile *hcl.File, filename string) (*File, error) {
	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	f.Filename = filename
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the inputs and the kernel block. It does not inspect the
// compute expression; that happens when it is lowered.
func (f *File) Validate() error {
	if f.Kernel == nil {
		return fmt.Errorf("%s: missing kernel block", f.Filename)
	}
	if f.Kernel.Width < 0 || f.Kernel.Height < 0 {
		return fmt.Errorf("%s: kernel shape %dx%d must not be negative", f.Filename, f.Kernel.Width, f.Kernel.Height)
	}

	seen := make(map[string]struct{}, len(f.Inputs))
	for _, in := range f.Inputs {
		if in.Name == graph.GridRowToken || in.Name == graph.GridColToken {
			return fmt.Errorf("%s: input %q: name is reserved", f.Filename, in.Name)
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("%s: input %q declared twice", f.Filename, in.Name)
		}
		seen[in.Name] = struct{}{}

		if err := in.validate(); err != nil {
			return fmt.Errorf("%s: input %q: %w", f.Filename, in.Name, err)
		}
	}
	return nil
}

func (in *Input) validate() error {
	switch in.Kind {
	case KindScalar:
		if in.Value == nil {
			return errors.New("scalar input requires value")
		}
		if in.Width != nil || in.Height != nil || in.Data != nil {
			return errors.New("scalar input accepts only value")
		}
	case KindBuffer:
		if in.Width == nil || in.Height == nil || in.Data == nil {
			return errors.New("buffer input requires width, height and data")
		}
		if in.Value != nil {
			return errors.New("buffer input does not accept value")
		}
	default:
		return fmt.Errorf("unknown input kind %q (want %q or %q)", in.Kind, KindScalar, KindBuffer)
	}
	return nil
}
