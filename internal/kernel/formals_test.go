package kernel

import (
	"testing"

	"github.com/born-ml/gridkernel/internal/params"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormals_RoundTrip(t *testing.T) {
	formals := []params.Formal{
		{Name: "var0", Kind: params.Buffer2D, Width: 3, Height: 2},
		{Name: "var1", Kind: params.Scalar},
		{Name: "var2", Kind: params.Buffer2D, Width: 1, Height: 7},
	}
	got, err := ParseFormals(EmitSource("t", "var1", formals))
	require.NoError(t, err)
	if diff := cmp.Diff(formals, got); diff != "" {
		t.Errorf("ParseFormals() mismatch (-want +got):\n%s", diff)
	}

	got, err = ParseFormals(EmitSource("t", "1", nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFormals_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"out of order", "@group(0) @binding(1) var<storage, read> var1: f32;", "binding 1 declared out of order (expected 0)"},
		{"unsupported type", "@group(0) @binding(0) var<storage, read> var0: vec4<f32>;", "unsupported type 'vec4<f32>' for 'var0'"},
		{"empty array", "@group(0) @binding(0) var<storage, read> var0: array<array<f32, 0>, 2>;", "array 'var0' must have positive dimensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFormals(tt.src)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCheckFormalNames(t *testing.T) {
	declared := []params.Formal{{Name: "var0", Kind: params.Scalar}}

	assert.NoError(t, CheckFormalNames(declared, []string{"var0"}))
	assert.ErrorContains(t, CheckFormalNames(declared, nil), "source declares 1 parameters, 0 formal parameters given")
	assert.ErrorContains(t, CheckFormalNames(declared, []string{"var1"}), "binding 0 is 'var0', formal parameter 0 is 'var1'")
}

func TestCheckArgs(t *testing.T) {
	formals := []params.Formal{
		{Name: "var0", Kind: params.Scalar},
		{Name: "var1", Kind: params.Buffer2D, Width: 2, Height: 2},
	}
	scalar := params.Value{Kind: params.Scalar, Scalar: 1}
	buffer := func(w, h, n int) params.Value {
		return params.Value{Kind: params.Buffer2D, Buffer: params.Buffer{Width: w, Height: h, Data: make([]float32, n)}}
	}

	assert.NoError(t, CheckArgs(formals, []params.Value{scalar, buffer(2, 2, 4)}))
	assert.ErrorContains(t, CheckArgs(formals, []params.Value{scalar}), "kernel takes 2 arguments, got 1")
	assert.ErrorContains(t, CheckArgs(formals, []params.Value{buffer(2, 2, 4), buffer(2, 2, 4)}), "argument 0 (var0): expected f32, got 2d")
	assert.ErrorContains(t, CheckArgs(formals, []params.Value{scalar, buffer(4, 1, 4)}), "argument 1 (var1): expected 2x2 buffer, got 4x1 with 4 elements")
	assert.ErrorContains(t, CheckArgs(formals, []params.Value{scalar, buffer(2, 2, 3)}), "expected 2x2 buffer, got 2x2 with 3 elements")
}
