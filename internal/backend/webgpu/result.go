//go:build windows

package webgpu

import "github.com/born-ml/gridkernel/internal/kernel"

// Result holds the output grid of one dispatch, copied back to the host.
type Result struct {
	width  int
	height int
	data   []float32
}

// Width returns the number of output columns.
func (r *Result) Width() int { return r.width }

// Height returns the number of output rows.
func (r *Result) Height() int { return r.height }

// Read returns a row-major copy of the output.
func (r *Result) Read() ([]float32, error) {
	if r.data == nil {
		return nil, kernel.ErrResultReleased
	}
	return append([]float32(nil), r.data...), nil
}

// Release drops the output.
func (r *Result) Release() {
	r.data = nil
}
