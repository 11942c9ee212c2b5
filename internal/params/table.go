// Package params implements the ordered parameter table bound to grid kernels.
package params

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrShapeMismatch is returned when buffer data does not match its declared shape.
var ErrShapeMismatch = errors.New("shape mismatch")

// namePrefix prefixes generated parameter names; the suffix is the position.
const namePrefix = "var"

// Kind is the runtime type of a parameter.
type Kind int

// Parameter kinds.
const (
	Scalar Kind = iota
	Buffer2D
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "f32"
	case Buffer2D:
		return "2d"
	default:
		return "unknown"
	}
}

// Buffer is a row-major 2-D float buffer.
type Buffer struct {
	Width  int
	Height int
	Data   []float32
}

// At returns the element at (row, col), or 0 when out of range.
func (b Buffer) At(row, col int) float32 {
	if row < 0 || col < 0 || row >= b.Height || col >= b.Width {
		return 0
	}
	return b.Data[row*b.Width+col]
}

// Value is a runtime value passed to a kernel.
type Value struct {
	Kind   Kind
	Scalar float32
	Buffer Buffer
}

// Entry is one registered parameter.
type Entry struct {
	Position int
	Name     string
	Value    Value
}

// Formal describes one formal parameter of a generated kernel.
// Width and Height are zero for scalars.
type Formal struct {
	Name   string
	Kind   Kind
	Width  int
	Height int
}

// Table is an append-only, ordered registry of kernel parameters.
// Positions are contiguous from zero in registration order, and that order is
// both the kernel's formal parameter order and the dispatch argument order.
type Table struct {
	entries []Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of registered parameters.
func (t *Table) Len() int {
	return len(t.entries)
}

// RegisterScalar appends a scalar and returns its generated name.
func (t *Table) RegisterScalar(v float32) string {
	return t.append(Value{Kind: Scalar, Scalar: v})
}

// RegisterBuffer appends a width x height buffer and returns its generated name.
// The data is copied. On error the table is unchanged.
func (t *Table) RegisterBuffer(data []float32, width, height int) (string, error) {
	if err := CheckShape(len(data), width, height); err != nil {
		return "", err
	}
	owned := make([]float32, len(data))
	copy(owned, data)
	return t.append(Value{Kind: Buffer2D, Buffer: Buffer{Width: width, Height: height, Data: owned}}), nil
}

// CheckShape reports whether n elements form a valid width x height buffer.
func CheckShape(n, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: buffer dimensions must be positive, got %dx%d", ErrShapeMismatch, width, height)
	}
	if n != width*height {
		return fmt.Errorf("%w: %d elements for %dx%d buffer (want %d)",
			ErrShapeMismatch, n, width, height, width*height)
	}
	return nil
}

func (t *Table) append(v Value) string {
	pos := len(t.entries)
	name := namePrefix + strconv.Itoa(pos)
	t.entries = append(t.entries, Entry{Position: pos, Name: name, Value: v})
	return name
}

// Finalize returns the formal parameter list in registration order.
func (t *Table) Finalize() []Formal {
	formals := make([]Formal, len(t.entries))
	for i, e := range t.entries {
		formals[i] = Formal{Name: e.Name, Kind: e.Value.Kind}
		if e.Value.Kind == Buffer2D {
			formals[i].Width = e.Value.Buffer.Width
			formals[i].Height = e.Value.Buffer.Height
		}
	}
	return formals
}

// Names returns the parameter names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

// Values returns the runtime values in registration order.
// Buffer data is shared with the table and must not be modified.
func (t *Table) Values() []Value {
	values := make([]Value, len(t.entries))
	for i, e := range t.entries {
		values[i] = e.Value
	}
	return values
}

// Lookup returns the entry registered under name.
func (t *Table) Lookup(name string) (Entry, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
