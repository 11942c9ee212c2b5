package cpu

import "github.com/born-ml/gridkernel/internal/params"

// cellEnv holds the inputs visible to one cell invocation.
type cellEnv struct {
	row, col uint32
	args     []params.Value
}

type f32Fn func(env *cellEnv) float32

type u32Fn func(env *cellEnv) uint32

// lowerF32 turns a checked f32 (or abstract) expression into a closure.
func lowerF32(e *expr) f32Fn {
	if e.typ.abstract() {
		v := float32(e.val)
		return func(*cellEnv) float32 { return v }
	}
	switch e.kind {
	case exprConst:
		v := float32(e.val)
		return func(*cellEnv) float32 { return v }
	case exprParam:
		slot := e.slot
		return func(env *cellEnv) float32 { return env.args[slot].Scalar }
	case exprAdd:
		l, r := lowerF32(e.args[0]), lowerF32(e.args[1])
		return func(env *cellEnv) float32 { return l(env) + r(env) }
	case exprMul:
		l, r := lowerF32(e.args[0]), lowerF32(e.args[1])
		return func(env *cellEnv) float32 { return l(env) * r(env) }
	case exprNeg:
		x := lowerF32(e.args[0])
		return func(env *cellEnv) float32 { return -x(env) }
	case exprIndex:
		// e is buffer[row][col]; the type checker guarantees the buffer is a parameter.
		rowIndex := e.args[0]
		slot := rowIndex.args[0].slot
		row, col := lowerU32(rowIndex.args[1]), lowerU32(e.args[1])
		return func(env *cellEnv) float32 {
			r, c := row(env), col(env)
			return env.args[slot].Buffer.At(int(r), int(c))
		}
	default:
		panic("cpu: unexpected f32 expression")
	}
}

// lowerU32 turns a checked u32 expression into a closure.
func lowerU32(e *expr) u32Fn {
	switch e.kind {
	case exprConst:
		v := uint32(e.val)
		return func(*cellEnv) uint32 { return v }
	case exprGridRow:
		return func(env *cellEnv) uint32 { return env.row }
	case exprGridCol:
		return func(env *cellEnv) uint32 { return env.col }
	case exprAdd:
		l, r := lowerU32(e.args[0]), lowerU32(e.args[1])
		return func(env *cellEnv) uint32 { return l(env) + r(env) }
	case exprMul:
		l, r := lowerU32(e.args[0]), lowerU32(e.args[1])
		return func(env *cellEnv) uint32 { return l(env) * r(env) }
	default:
		panic("cpu: unexpected u32 expression")
	}
}
