package graph

import (
	"math"
	"strconv"
	"strings"
)

// Render lowers the tree to a kernel-source expression fragment.
//
// Rendering is pure structural recursion: the same tree always yields the same
// text. Names are emitted verbatim; resolving them is left to the backend
// compiler.
func (n *Node) Render() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return n.Render()
}

func (n *Node) render(sb *strings.Builder) {
	if n == nil {
		return
	}
	switch n.op {
	case OpAdd:
		n.renderBinary(sb, "+")
	case OpMultiply:
		n.renderBinary(sb, "*")
	case OpElementFetch:
		n.args[0].render(sb)
		sb.WriteByte('[')
		n.args[1].render(sb)
		sb.WriteString("][")
		n.args[2].render(sb)
		sb.WriteByte(']')
	case OpConstant:
		sb.WriteString(FormatConstant(n.value))
	case OpReference:
		sb.WriteString(referenceToken(n.name))
	}
}

func (n *Node) renderBinary(sb *strings.Builder, op string) {
	sb.WriteByte(' ')
	n.args[0].render(sb)
	sb.WriteByte(' ')
	sb.WriteString(op)
	sb.WriteByte(' ')
	n.args[1].render(sb)
	sb.WriteByte(' ')
}

func referenceToken(name string) string {
	switch name {
	case GridRow:
		return GridRowToken
	case GridCol:
		return GridColToken
	default:
		return name
	}
}

// FormatConstant returns the canonical text of a constant. Whole numbers in
// the i32 range are written without a fraction or exponent, so the kernel
// compiler reads them as abstract integers that fit both indices and f32
// arithmetic. Anything else uses the shortest form that round-trips through
// float32.
func FormatConstant(v float32) string {
	f := float64(v)
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		if f == 0 {
			return "0"
		}
		return strconv.FormatFloat(f, 'f', -1, 32)
	}
	return strconv.FormatFloat(f, 'g', -1, 32)
}
