package config

import (
	"context"
	"testing"

	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/params"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	f, err := Load(context.Background(), "testdata/physics.hcl")
	require.NoError(t, err)

	require.Len(t, f.Inputs, 3)
	names := []string{f.Inputs[0].Name, f.Inputs[1].Name, f.Inputs[2].Name}
	if diff := cmp.Diff([]string{"position", "velocity", "dt"}, names); diff != "" {
		t.Errorf("input order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, KindBuffer, f.Inputs[0].Kind)
	assert.Equal(t, 3, *f.Inputs[0].Width)
	assert.Equal(t, 10, *f.Inputs[0].Height)
	assert.Len(t, f.Inputs[0].Data, 30)
	assert.Equal(t, float32(0.5), *f.Inputs[2].Value)
	assert.Equal(t, 3, f.Kernel.Width)
	assert.Equal(t, 10, f.Kernel.Height)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), "testdata/does-not-exist.hcl")
	assert.ErrorContains(t, err, "failed to parse HCL file")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax error",
			src:  `kernel {`,
			want: "failed to parse HCL file",
		},
		{
			name: "missing kernel",
			src:  `input "scalar" "k" { value = 1 }`,
			want: "missing kernel block",
		},
		{
			name: "missing compute",
			src: `kernel {
  width  = 1
  height = 1
}`,
			want: "failed to decode HCL file",
		},
		{
			name: "unknown attribute",
			src: `kernel {
  compute = 1
  width   = 1
  height  = 1
  depth   = 1
}`,
			want: "failed to decode HCL file",
		},
		{
			name: "negative shape",
			src: `kernel {
  compute = 1
  width   = -1
  height  = 1
}`,
			want: "must not be negative",
		},
		{
			name: "unknown kind",
			src: `input "matrix" "m" { value = 1 }
kernel {
  compute = 1
  width   = 1
  height  = 1
}`,
			want: `unknown input kind "matrix"`,
		},
		{
			name: "scalar without value",
			src: `input "scalar" "k" {}
kernel {
  compute = k
  width   = 1
  height  = 1
}`,
			want: "scalar input requires value",
		},
		{
			name: "scalar with data",
			src: `input "scalar" "k" {
  value = 1
  data  = [1]
}
kernel {
  compute = k
  width   = 1
  height  = 1
}`,
			want: "scalar input accepts only value",
		},
		{
			name: "buffer without data",
			src: `input "buffer" "b" {
  width  = 1
  height = 1
}
kernel {
  compute = 1
  width   = 1
  height  = 1
}`,
			want: "buffer input requires width, height and data",
		},
		{
			name: "duplicate input",
			src: `input "scalar" "k" { value = 1 }
input "scalar" "k" { value = 2 }
kernel {
  compute = k
  width   = 1
  height  = 1
}`,
			want: `input "k" declared twice`,
		},
		{
			name: "reserved name",
			src: `input "scalar" "grid_row" { value = 1 }
kernel {
  compute = 1
  width   = 1
  height  = 1
}`,
			want: "name is reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild_RegistersInputsInOrder(t *testing.T) {
	f, err := Load(context.Background(), "testdata/physics.hcl")
	require.NoError(t, err)

	s, err := kernel.NewSession(context.Background(), kernel.NewMockBackend())
	require.NoError(t, err)
	defer s.Close()

	root, err := f.Build(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, kernel.Uninitialized, s.State())

	formals := s.Params()
	require.Len(t, formals, 3)
	assert.Equal(t, params.Formal{Name: "var0", Kind: params.Buffer2D, Width: 3, Height: 10}, formals[0])
	assert.Equal(t, params.Formal{Name: "var1", Kind: params.Buffer2D, Width: 3, Height: 10}, formals[1])
	assert.Equal(t, params.Formal{Name: "var2", Kind: params.Scalar}, formals[2])

	assert.Equal(t, " var0[grid_row][grid_col] +  var1[grid_row][grid_col] * var2  ", root.Render())
}

func TestBuild_ShapeMismatch(t *testing.T) {
	f, err := Parse([]byte(`input "buffer" "b" {
  width  = 2
  height = 2
  data   = [1, 2, 3]
}
kernel {
  compute = b[grid_row][grid_col]
  width   = 2
  height  = 2
}`), "test.hcl")
	require.NoError(t, err)

	s, err := kernel.NewSession(context.Background(), kernel.NewMockBackend())
	require.NoError(t, err)
	defer s.Close()

	_, err = f.Build(context.Background(), s)
	require.ErrorIs(t, err, kernel.ErrShapeMismatch)
	assert.Contains(t, err.Error(), `input "b"`)
}

func TestRun(t *testing.T) {
	f, err := Load(context.Background(), "testdata/physics.hcl")
	require.NoError(t, err)

	backend := kernel.NewMockBackend()
	s, err := kernel.NewSession(context.Background(), backend)
	require.NoError(t, err)
	defer s.Close()

	res, err := f.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, kernel.Ready, s.State())
	assert.Equal(t, 3, res.Width())
	assert.Equal(t, 10, res.Height())

	require.Len(t, backend.Formals, 1)
	if diff := cmp.Diff([]string{"var0", "var1", "var2"}, backend.Formals[0]); diff != "" {
		t.Errorf("formals mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, backend.Sources[0], "return var0[grid_row][grid_col] +  var1[grid_row][grid_col] * var2;")
}
