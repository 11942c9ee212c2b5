package config

import (
	"testing"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRefs = map[string]*graph.Node{
	"position": graph.Reference("var0"),
	"velocity": graph.Reference("var1"),
	"dt":       graph.Reference("var2"),
}

func lowerSource(t *testing.T, src string) (*graph.Node, hcl.Diagnostics) {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return Lower(expr, testRefs)
}

func TestLower(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *graph.Node
	}{
		{
			name: "constant",
			src:  "42",
			want: graph.Constant(42),
		},
		{
			name: "negative constant",
			src:  "-2.5",
			want: graph.Constant(-2.5),
		},
		{
			name: "reference",
			src:  "dt",
			want: graph.Reference("var2"),
		},
		{
			name: "precedence",
			src:  "2 + 3 * 4",
			want: graph.Add(graph.Constant(2), graph.Multiply(graph.Constant(3), graph.Constant(4))),
		},
		{
			name: "fetch",
			src:  "position[grid_row][grid_col]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Row(), graph.Col()),
		},
		{
			name: "transposed fetch",
			src:  "position[grid_col][grid_row]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Col(), graph.Row()),
		},
		{
			name: "physics step",
			src:  "position[grid_row][grid_col] + velocity[grid_row][grid_col] * dt",
			want: graph.Add(
				graph.ElementFetch(graph.Reference("var0"), graph.Row(), graph.Col()),
				graph.Multiply(graph.ElementFetch(graph.Reference("var1"), graph.Row(), graph.Col()), graph.Reference("var2")),
			),
		},
		{
			name: "function forms",
			src:  "add(fetch(position, grid_row, grid_col), mul(dt, 2))",
			want: graph.Add(
				graph.ElementFetch(graph.Reference("var0"), graph.Row(), graph.Col()),
				graph.Multiply(graph.Reference("var2"), graph.Constant(2)),
			),
		},
		{
			name: "parentheses",
			src:  "(dt * dt) + (1)",
			want: graph.Add(graph.Multiply(graph.Reference("var2"), graph.Reference("var2")), graph.Constant(1)),
		},
		{
			name: "negated reference",
			src:  "-dt",
			want: graph.Multiply(graph.Constant(-1), graph.Reference("var2")),
		},
		{
			name: "coordinate arithmetic index",
			src:  "position[grid_row * grid_col][grid_col]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Multiply(graph.Row(), graph.Col()), graph.Col()),
		},
		{
			name: "literal indices",
			src:  "position[0][1]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Constant(0), graph.Constant(1)),
		},
		{
			name: "literal row index",
			src:  "position[1][grid_col]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Constant(1), graph.Col()),
		},
		{
			name: "literal column index",
			src:  "position[grid_row][2]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Row(), graph.Constant(2)),
		},
		{
			name: "offset index",
			src:  "position[grid_row + 1][grid_col]",
			want: graph.ElementFetch(graph.Reference("var0"), graph.Add(graph.Row(), graph.Constant(1)), graph.Col()),
		},
		{
			name: "function fetch with constant index",
			src:  "fetch(velocity, 0, grid_col * 2)",
			want: graph.ElementFetch(graph.Reference("var1"), graph.Constant(0), graph.Multiply(graph.Col(), graph.Constant(2))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := lowerSource(t, tt.src)
			require.False(t, diags.HasErrors(), diags.Error())
			assert.Equal(t, tt.want.Render(), got.Render())
			assert.Equal(t, tt.want.Op(), got.Op())
		})
	}
}

func TestLower_Diagnostics(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		summary string
	}{
		{"unknown input", "speed", "Unknown input"},
		{"subtraction", "dt - 1", "Unsupported operator"},
		{"division", "dt / 2", "Unsupported operator"},
		{"logical not", "!dt", "Unsupported operator"},
		{"string", `"dt"`, "Unsupported expression"},
		{"bool", "true", "Invalid operand"},
		{"attribute access", "position.x", "Unsupported attribute access"},
		{"single index", "position[grid_row]", "Incomplete element fetch"},
		{"single literal index", "position[0]", "Incomplete element fetch"},
		{"three indices", "position[grid_row][grid_col][0]", "Incomplete element fetch"},
		{"fractional index", "position[1.5][grid_col]", "Invalid index"},
		{"negative index", "position[-1][grid_col]", "Invalid index"},
		{"input in index", "position[dt][grid_col]", "Invalid index"},
		{"coordinate value", "grid_col", "Grid coordinate used as a value"},
		{"coordinate sum", "grid_row + grid_col", "Grid coordinate used as a value"},
		{"scaled coordinate", "dt + grid_row * 2", "Grid coordinate used as a value"},
		{"index coordinate", "fetch(grid_row, grid_row, grid_col)", "Invalid fetch source"},
		{"index expression", "fetch(dt * 2, grid_row, grid_col)", "Invalid fetch source"},
		{"unknown function", "max(dt, 1)", "Unsupported function"},
		{"arity", "add(dt)", "Wrong number of arguments"},
		{"sum as factor", "(dt + 1) * 2", "Sum used as a factor"},
		{"negated sum", "-(dt + 1)", "Sum used as a factor"},
		{"conditional", "dt > 1 ? 1 : 0", "Unsupported expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := lowerSource(t, tt.src)
			require.True(t, diags.HasErrors())
			assert.Equal(t, tt.summary, diags[0].Summary)
			assert.NotNil(t, diags[0].Subject)
		})
	}
}
