package kernel

import (
	"fmt"
	"strings"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/params"
)

// Names used by the generated WGSL source unit.
const (
	// CellFunction is the function holding the per-cell expression.
	CellFunction = "cell"
	// OutputBinding is the storage buffer receiving the output grid.
	OutputBinding = "grid_output"
	// ShapeBinding is the uniform holding the output grid shape.
	ShapeBinding = "grid_shape"
	// WorkgroupSize is the edge of the square compute workgroup.
	WorkgroupSize = 16
)

// EmitSource wraps a rendered cell expression into a complete WGSL compute
// shader. Parameter i is bound at @binding(i); the output buffer and the shape
// uniform follow the parameters.
func EmitSource(label, fragment string, formals []params.Formal) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// gridkernel: %s\n", label)
	for i, f := range formals {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var<storage, read> %s: %s;\n", i, f.Name, wgslType(f))
	}
	n := len(formals)
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<storage, read_write> %s: array<f32>;\n", n, OutputBinding)
	sb.WriteString("\nstruct GridShape {\n    width: u32,\n    height: u32,\n}\n")
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> %s: GridShape;\n", n+1, ShapeBinding)

	fmt.Fprintf(&sb, "\nfn %s(%s: u32, %s: u32) -> f32 {\n", CellFunction, graph.GridRowToken, graph.GridColToken)
	fmt.Fprintf(&sb, "    return %s;\n}\n", strings.TrimSpace(fragment))

	fmt.Fprintf(&sb, "\n@compute @workgroup_size(%d, %d)\n", WorkgroupSize, WorkgroupSize)
	sb.WriteString("fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n")
	// Phony uses keep unreferenced parameters in the auto-derived layout.
	for _, f := range formals {
		fmt.Fprintf(&sb, "    _ = &%s;\n", f.Name)
	}
	fmt.Fprintf(&sb, "    if (gid.x >= %[1]s.width || gid.y >= %[1]s.height) {\n        return;\n    }\n", ShapeBinding)
	fmt.Fprintf(&sb, "    %s[gid.y * %s.width + gid.x] = %s(gid.y, gid.x);\n}\n", OutputBinding, ShapeBinding, CellFunction)

	return sb.String()
}

func wgslType(f params.Formal) string {
	if f.Kind == params.Buffer2D {
		return fmt.Sprintf("array<array<f32, %d>, %d>", f.Width, f.Height)
	}
	return "f32"
}
