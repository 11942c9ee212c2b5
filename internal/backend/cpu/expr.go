package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/params"
)

// valueType is the static type of a cell sub-expression, following WGSL rules.
type valueType int

const (
	typeAbstractInt valueType = iota
	typeAbstractFloat
	typeF32
	typeU32
	typeRow    // array<f32, W>
	typeBuffer // array<array<f32, W>, H>
)

func (t valueType) String() string {
	switch t {
	case typeAbstractInt:
		return "abstract-int"
	case typeAbstractFloat:
		return "abstract-float"
	case typeF32:
		return "f32"
	case typeU32:
		return "u32"
	case typeRow:
		return "array<f32>"
	case typeBuffer:
		return "array<array<f32>>"
	default:
		return "unknown"
	}
}

func (t valueType) abstract() bool {
	return t == typeAbstractInt || t == typeAbstractFloat
}

type exprKind int

const (
	exprConst exprKind = iota
	exprParam
	exprGridRow
	exprGridCol
	exprAdd
	exprMul
	exprNeg
	exprIndex
)

// expr is a type-checked cell expression.
type expr struct {
	kind exprKind
	typ  valueType
	args []*expr
	slot int     // parameter position for exprParam
	val  float64 // folded value when typ is abstract
}

type parser struct {
	toks     []token
	pos      int
	bindings map[string]binding
}

// parseCell parses and type-checks the expression returned by the cell function.
func parseCell(src string, bindings []binding) (*expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, bindings: make(map[string]binding, len(bindings))}
	for _, b := range bindings {
		p.bindings[b.name] = b
	}

	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s %q at offset %d", tok.kind, tok.text, tok.pos)
	}
	switch e.typ {
	case typeF32, typeAbstractInt, typeAbstractFloat:
		return e, nil
	default:
		return nil, fmt.Errorf("return type %s does not match f32", e.typ)
	}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) error {
	tok := p.next()
	if tok.kind != kind {
		return fmt.Errorf("expected %s, found %s at offset %d", kind, tok.kind, tok.pos)
	}
	return nil
}

func (p *parser) parseSum() (*expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPlus {
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if left, err = binary(exprAdd, "+", left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseProduct() (*expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokStar {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if left, err = binary(exprMul, "*", left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (*expr, error) {
	if p.peek().kind != tokMinus {
		return p.parsePostfix()
	}
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch operand.typ {
	case typeAbstractInt, typeAbstractFloat:
		return &expr{kind: exprConst, typ: operand.typ, val: -operand.val}, nil
	case typeF32:
		return &expr{kind: exprNeg, typ: typeF32, args: []*expr{operand}}, nil
	default:
		return nil, fmt.Errorf("unary '-' cannot be applied to %s", operand.typ)
	}
}

func (p *parser) parsePostfix() (*expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokLBrack {
		p.next()
		index, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRBrack); err != nil {
			return nil, err
		}
		if e, err = indexExpr(e, index); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (p *parser) parsePrimary() (*expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		if tok.isFloat {
			return &expr{kind: exprConst, typ: typeAbstractFloat, val: tok.num}, nil
		}
		return &expr{kind: exprConst, typ: typeAbstractInt, val: tok.num}, nil
	case tokIdent:
		return p.resolve(tok)
	case tokLParen:
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unexpected %s at offset %d", tok.kind, tok.pos)
	}
}

func (p *parser) resolve(tok token) (*expr, error) {
	switch tok.text {
	case graph.GridRowToken:
		return &expr{kind: exprGridRow, typ: typeU32}, nil
	case graph.GridColToken:
		return &expr{kind: exprGridCol, typ: typeU32}, nil
	}
	b, ok := p.bindings[tok.text]
	if !ok {
		return nil, fmt.Errorf("unresolved identifier '%s'", tok.text)
	}
	typ := typeF32
	if b.kind == params.Buffer2D {
		typ = typeBuffer
	}
	return &expr{kind: exprParam, typ: typ, slot: b.slot}, nil
}

// binary type-checks l op r. Abstract operands adapt to the other side's
// concrete type; two abstract operands fold to a constant.
func binary(kind exprKind, op string, l, r *expr) (*expr, error) {
	if l.typ.abstract() && r.typ.abstract() {
		typ := typeAbstractInt
		if l.typ == typeAbstractFloat || r.typ == typeAbstractFloat {
			typ = typeAbstractFloat
		}
		v := l.val + r.val
		if kind == exprMul {
			v = l.val * r.val
		}
		return &expr{kind: exprConst, typ: typ, val: v}, nil
	}

	typ, ok := unify(l.typ, r.typ)
	if !ok {
		return nil, fmt.Errorf("operator %s cannot be applied to %s and %s", op, l.typ, r.typ)
	}
	if err := concretize(l, typ); err != nil {
		return nil, err
	}
	if err := concretize(r, typ); err != nil {
		return nil, err
	}
	return &expr{kind: kind, typ: typ, args: []*expr{l, r}}, nil
}

func unify(a, b valueType) (valueType, bool) {
	if a == b && (a == typeF32 || a == typeU32) {
		return a, true
	}
	if a.abstract() {
		a, b = b, a
	}
	switch {
	case a == typeF32 && b.abstract():
		return typeF32, true
	case a == typeU32 && b == typeAbstractInt:
		return typeU32, true
	default:
		return 0, false
	}
}

// concretize converts an abstract constant to typ in place.
func concretize(e *expr, typ valueType) error {
	if !e.typ.abstract() {
		return nil
	}
	if typ == typeU32 {
		if e.val < 0 || e.val > math.MaxUint32 || e.val != math.Trunc(e.val) {
			return fmt.Errorf("value %v cannot be represented as u32", e.val)
		}
	}
	e.typ = typ
	return nil
}

func indexExpr(collection, index *expr) (*expr, error) {
	var typ valueType
	switch collection.typ {
	case typeBuffer:
		typ = typeRow
	case typeRow:
		typ = typeF32
	default:
		return nil, fmt.Errorf("cannot index into value of type %s", collection.typ)
	}
	switch index.typ {
	case typeU32:
	case typeAbstractInt:
		if err := concretize(index, typeU32); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("index must be u32, got %s", index.typ)
	}
	return &expr{kind: exprIndex, typ: typ, args: []*expr{collection, index}}, nil
}
