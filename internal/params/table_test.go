package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_RegistrationOrder(t *testing.T) {
	table := NewTable()

	n0 := table.RegisterScalar(0.5)
	n1, err := table.RegisterBuffer([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	n2 := table.RegisterScalar(2)

	assert.Equal(t, "var0", n0)
	assert.Equal(t, "var1", n1)
	assert.Equal(t, "var2", n2)
	assert.Equal(t, 3, table.Len())

	formals := table.Finalize()
	require.Len(t, formals, 3)
	assert.Equal(t, Formal{Name: "var0", Kind: Scalar}, formals[0])
	assert.Equal(t, Formal{Name: "var1", Kind: Buffer2D, Width: 3, Height: 2}, formals[1])
	assert.Equal(t, Formal{Name: "var2", Kind: Scalar}, formals[2])

	assert.Equal(t, []string{"var0", "var1", "var2"}, table.Names())

	values := table.Values()
	require.Len(t, values, 3)
	for i, f := range formals {
		assert.Equal(t, f.Kind, values[i].Kind, "value %d kind must match formal", i)
	}
	assert.Equal(t, float32(0.5), values[0].Scalar)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, values[1].Buffer.Data)
	assert.Equal(t, float32(2), values[2].Scalar)
}

func TestTable_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name          string
		data          []float32
		width, height int
	}{
		{"too short", []float32{1, 2, 3, 4, 5}, 2, 3},
		{"too long", []float32{1, 2, 3, 4, 5}, 2, 2},
		{"zero width", nil, 0, 3},
		{"negative height", nil, 2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			table.RegisterScalar(1)

			name, err := table.RegisterBuffer(tt.data, tt.width, tt.height)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch))
			assert.Empty(t, name)
			assert.Equal(t, 1, table.Len(), "failed registration must not change the table")
		})
	}
}

func TestTable_FailedRegistrationDoesNotShiftPositions(t *testing.T) {
	table := NewTable()

	_, err := table.RegisterBuffer([]float32{1, 2, 3}, 2, 2)
	require.ErrorIs(t, err, ErrShapeMismatch)

	name, err := table.RegisterBuffer([]float32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "var0", name)

	entry, ok := table.Lookup("var0")
	require.True(t, ok)
	assert.Equal(t, 0, entry.Position)
}

func TestTable_CopiesBufferData(t *testing.T) {
	table := NewTable()
	data := []float32{1, 2, 3, 4}

	name, err := table.RegisterBuffer(data, 2, 2)
	require.NoError(t, err)
	data[0] = 100

	entry, ok := table.Lookup(name)
	require.True(t, ok)
	assert.Equal(t, float32(1), entry.Value.Buffer.Data[0])
}

func TestTable_Lookup(t *testing.T) {
	table := NewTable()
	table.RegisterScalar(7)

	_, ok := table.Lookup("var1")
	assert.False(t, ok)

	entry, ok := table.Lookup("var0")
	require.True(t, ok)
	assert.Equal(t, Scalar, entry.Value.Kind)
	assert.Equal(t, float32(7), entry.Value.Scalar)
}

func TestBuffer_At(t *testing.T) {
	b := Buffer{Width: 3, Height: 2, Data: []float32{0, 1, 2, 10, 11, 12}}

	assert.Equal(t, float32(0), b.At(0, 0))
	assert.Equal(t, float32(2), b.At(0, 2))
	assert.Equal(t, float32(10), b.At(1, 0))
	assert.Equal(t, float32(12), b.At(1, 2))
	assert.Equal(t, float32(0), b.At(2, 0), "row out of range")
	assert.Equal(t, float32(0), b.At(0, 3), "col out of range")
	assert.Equal(t, float32(0), b.At(-1, 0))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "f32", Scalar.String())
	assert.Equal(t, "2d", Buffer2D.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
