package config

import (
	"context"
	"fmt"

	"github.com/born-ml/gridkernel/internal/ctxlog"
	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/kernel"
)

// Build registers the file's inputs on s in declaration order and lowers the
// compute expression against them. The returned graph is not compiled.
func (f *File) Build(ctx context.Context, s *kernel.Session) (*graph.Node, error) {
	logger := ctxlog.FromContext(ctx)

	refs := make(map[string]*graph.Node, len(f.Inputs))
	for _, in := range f.Inputs {
		var ref *graph.Node
		switch in.Kind {
		case KindScalar:
			ref = s.Input(*in.Value)
		case KindBuffer:
			var err error
			ref, err = s.Input2D(in.Data, *in.Width, *in.Height)
			if err != nil {
				return nil, fmt.Errorf("%s: input %q: %w", f.Filename, in.Name, err)
			}
		default:
			return nil, fmt.Errorf("%s: input %q: unknown input kind %q", f.Filename, in.Name, in.Kind)
		}
		refs[in.Name] = ref
		logger.Debug("Input registered.", "input", in.Name, "kind", in.Kind, "param", ref.Name())
	}

	root, diags := Lower(f.Kernel.Compute, refs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: invalid compute expression: %w", f.Filename, diags)
	}
	return root, nil
}

// Apply builds the graph and compiles it on s.
func (f *File) Apply(ctx context.Context, s *kernel.Session) error {
	root, err := f.Build(ctx, s)
	if err != nil {
		return err
	}
	return s.SetComputeGraph(root)
}

// Run applies the file to s and dispatches the kernel over the declared grid.
func (f *File) Run(ctx context.Context, s *kernel.Session) (kernel.Result, error) {
	if err := f.Apply(ctx, s); err != nil {
		return nil, err
	}
	return s.Compute2D(f.Kernel.Width, f.Kernel.Height)
}
