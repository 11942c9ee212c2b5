package config

import (
	"fmt"
	"math"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Function forms accepted in compute expressions, equivalent to the
// index and operator syntax.
const (
	funcFetch = "fetch"
	funcAdd   = "add"
	funcMul   = "mul"
)

// lowerer turns a compute expression into a graph. refs maps input names to
// the reference nodes returned when the inputs were registered.
type lowerer struct {
	refs map[string]*graph.Node
}

// Lower converts a compute expression into a graph.Node tree. refs maps the
// names usable in the expression to their reference nodes; grid_row and
// grid_col are always available.
func Lower(expr hcl.Expression, refs map[string]*graph.Node) (*graph.Node, hcl.Diagnostics) {
	syntaxExpr, ok := expr.(hclsyntax.Expression)
	if !ok {
		return nil, hcl.Diagnostics{diag(expr.Range(), "Unsupported expression", "Compute expressions must use native HCL syntax.")}
	}
	l := &lowerer{refs: refs}
	root, diags := l.lower(syntaxExpr)
	if diags.HasErrors() {
		return nil, diags
	}
	if usesCoordinate(root) {
		return nil, hcl.Diagnostics{diag(expr.Range(), "Grid coordinate used as a value",
			"grid_row and grid_col are unsigned indices; they may only appear inside element indices.")}
	}
	return root, nil
}

func diag(rng hcl.Range, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}
}

func (l *lowerer) lower(expr hclsyntax.Expression) (*graph.Node, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.ParenthesesExpr:
		return l.lower(e.Expression)

	case *hclsyntax.LiteralValueExpr:
		return lowerLiteral(e)

	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) == 1 {
			return l.lowerName(e)
		}
		return l.lowerIndex(e)

	case *hclsyntax.RelativeTraversalExpr:
		return l.lowerIndex(e)

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, hcl.Diagnostics{diag(e.Range(), "Unsupported operator", "Only unary minus is supported.")}
		}
		val, diags := l.lower(e.Val)
		if diags.HasErrors() {
			return nil, diags
		}
		if val.Op() == graph.OpConstant {
			return graph.Constant(-val.Value()), nil
		}
		return product(e.Range(), graph.Constant(-1), val)

	case *hclsyntax.BinaryOpExpr:
		lhs, diags := l.lower(e.LHS)
		rhs, rdiags := l.lower(e.RHS)
		diags = append(diags, rdiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		switch e.Op {
		case hclsyntax.OpAdd:
			return graph.Add(lhs, rhs), nil
		case hclsyntax.OpMultiply:
			return product(e.Range(), lhs, rhs)
		default:
			return nil, hcl.Diagnostics{diag(e.Range(), "Unsupported operator", "Compute expressions support only + and *.")}
		}

	case *hclsyntax.IndexExpr:
		return l.lowerIndex(e)

	case *hclsyntax.FunctionCallExpr:
		return l.lowerCall(e)

	default:
		return nil, hcl.Diagnostics{diag(expr.Range(), "Unsupported expression",
			"Compute expressions are built from numbers, input names, grid_row, grid_col, +, *, indexing and fetch/add/mul calls.")}
	}
}

func lowerLiteral(e *hclsyntax.LiteralValueExpr) (*graph.Node, hcl.Diagnostics) {
	return lowerNumber(e.Val, e.Range())
}

func lowerNumber(val cty.Value, rng hcl.Range) (*graph.Node, hcl.Diagnostics) {
	if val.IsNull() || !val.IsKnown() || val.Type() != cty.Number {
		return nil, hcl.Diagnostics{diag(rng, "Invalid operand", "Only numbers can appear as literals in a compute expression.")}
	}
	var v float32
	if err := gocty.FromCtyValue(val, &v); err != nil {
		return nil, hcl.Diagnostics{diag(rng, "Invalid number", err.Error())}
	}
	return graph.Constant(v), nil
}

func (l *lowerer) lowerName(e *hclsyntax.ScopeTraversalExpr) (*graph.Node, hcl.Diagnostics) {
	name := e.Traversal.RootName()
	switch name {
	case graph.GridRowToken:
		return graph.Row(), nil
	case graph.GridColToken:
		return graph.Col(), nil
	}
	ref, ok := l.refs[name]
	if !ok {
		return nil, hcl.Diagnostics{diag(e.Range(), "Unknown input", fmt.Sprintf("There is no input named %q.", name))}
	}
	return ref, nil
}

// indexKey is one subscript of an element fetch. HCL keeps literal
// subscripts as traversal steps and others as expressions.
type indexKey struct {
	expr hclsyntax.Expression
	lit  cty.Value
	rng  hcl.Range
}

// splitIndices flattens name[r][c] in any of the forms the HCL parser
// produces into its base expression and subscripts.
func splitIndices(expr hclsyntax.Expression) (hclsyntax.Expression, []indexKey, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.IndexExpr:
		base, keys, diags := splitIndices(e.Collection)
		return base, append(keys, indexKey{expr: e.Key, rng: e.Key.Range()}), diags

	case *hclsyntax.ScopeTraversalExpr:
		root := &hclsyntax.ScopeTraversalExpr{Traversal: e.Traversal[:1], SrcRange: e.Traversal[0].SourceRange()}
		keys, diags := traversalKeys(e.Traversal[1:])
		return root, keys, diags

	case *hclsyntax.RelativeTraversalExpr:
		base, keys, diags := splitIndices(e.Source)
		more, tdiags := traversalKeys(e.Traversal)
		return base, append(keys, more...), append(diags, tdiags...)

	default:
		return expr, nil, nil
	}
}

func traversalKeys(steps hcl.Traversal) ([]indexKey, hcl.Diagnostics) {
	keys := make([]indexKey, 0, len(steps))
	for _, step := range steps {
		idx, ok := step.(hcl.TraverseIndex)
		if !ok {
			return nil, hcl.Diagnostics{diag(step.SourceRange(), "Unsupported attribute access", "Inputs have no attributes.")}
		}
		keys = append(keys, indexKey{lit: idx.Key, rng: idx.SrcRange})
	}
	return keys, nil
}

// lowerIndex lowers src[row][col].
func (l *lowerer) lowerIndex(expr hclsyntax.Expression) (*graph.Node, hcl.Diagnostics) {
	base, keys, diags := splitIndices(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	if len(keys) != 2 {
		if _, diags := l.lower(base); diags.HasErrors() {
			return nil, diags
		}
		return nil, hcl.Diagnostics{diag(expr.Range(), "Incomplete element fetch", "Buffers are indexed as name[row][col].")}
	}
	return l.fetch(base, keys[0], keys[1])
}

func (l *lowerer) lowerCall(e *hclsyntax.FunctionCallExpr) (*graph.Node, hcl.Diagnostics) {
	arity := map[string]int{funcFetch: 3, funcAdd: 2, funcMul: 2}
	want, ok := arity[e.Name]
	if !ok {
		return nil, hcl.Diagnostics{diag(e.Range(), "Unsupported function", fmt.Sprintf("There is no function named %q; use fetch, add or mul.", e.Name))}
	}
	if len(e.Args) != want {
		return nil, hcl.Diagnostics{diag(e.Range(), "Wrong number of arguments", fmt.Sprintf("Function %q takes %d arguments, got %d.", e.Name, want, len(e.Args)))}
	}
	if e.Name == funcFetch {
		return l.fetch(e.Args[0],
			indexKey{expr: e.Args[1], rng: e.Args[1].Range()},
			indexKey{expr: e.Args[2], rng: e.Args[2].Range()})
	}

	lhs, diags := l.lower(e.Args[0])
	rhs, rdiags := l.lower(e.Args[1])
	diags = append(diags, rdiags...)
	if diags.HasErrors() {
		return nil, diags
	}
	if e.Name == funcAdd {
		return graph.Add(lhs, rhs), nil
	}
	return product(e.Range(), lhs, rhs)
}

func (l *lowerer) fetch(srcExpr hclsyntax.Expression, rowKey, colKey indexKey) (*graph.Node, hcl.Diagnostics) {
	name, ok := srcExpr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(name.Traversal) != 1 {
		return nil, hcl.Diagnostics{diag(srcExpr.Range(), "Invalid fetch source", "Only buffer inputs can be indexed.")}
	}
	src, diags := l.lowerName(name)
	if diags.HasErrors() {
		return nil, diags
	}
	if src.Op() != graph.OpReference || src.Name() == graph.GridRow || src.Name() == graph.GridCol {
		return nil, hcl.Diagnostics{diag(srcExpr.Range(), "Invalid fetch source", "Grid coordinates cannot be indexed.")}
	}

	row, diags := l.index(rowKey)
	col, cdiags := l.index(colKey)
	diags = append(diags, cdiags...)
	if diags.HasErrors() {
		return nil, diags
	}
	return graph.ElementFetch(src, row, col), nil
}

// index lowers an element index. Indices are u32 in generated source, so
// they may only combine grid coordinates and whole non-negative numbers.
func (l *lowerer) index(key indexKey) (*graph.Node, hcl.Diagnostics) {
	var (
		n     *graph.Node
		diags hcl.Diagnostics
	)
	if key.expr != nil {
		n, diags = l.lower(key.expr)
	} else {
		n, diags = lowerNumber(key.lit, key.rng)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	if !isIndex(n) {
		return nil, hcl.Diagnostics{diag(key.rng, "Invalid index",
			"Element indices must be built from grid_row, grid_col and whole non-negative numbers with + and *.")}
	}
	return n, nil
}

func isIndex(n *graph.Node) bool {
	switch n.Op() {
	case graph.OpReference:
		return n.Name() == graph.GridRow || n.Name() == graph.GridCol
	case graph.OpConstant:
		v := float64(n.Value())
		return v >= 0 && v <= math.MaxInt32 && v == math.Trunc(v)
	case graph.OpAdd, graph.OpMultiply:
		for _, c := range n.Children() {
			if !isIndex(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// usesCoordinate reports whether a grid coordinate reaches n's value outside
// of an element index.
func usesCoordinate(n *graph.Node) bool {
	switch n.Op() {
	case graph.OpReference:
		return n.Name() == graph.GridRow || n.Name() == graph.GridCol
	case graph.OpAdd, graph.OpMultiply:
		for _, c := range n.Children() {
			if usesCoordinate(c) {
				return true
			}
		}
	}
	return false
}

// product builds lhs * rhs. Rendered source carries no parentheses, so a sum
// used as a factor would change meaning and is rejected.
func product(rng hcl.Range, lhs, rhs *graph.Node) (*graph.Node, hcl.Diagnostics) {
	if lhs.Op() == graph.OpAdd || rhs.Op() == graph.OpAdd {
		return nil, hcl.Diagnostics{diag(rng, "Sum used as a factor",
			"Generated source has no grouping, so (a + b) * c would evaluate as a + b * c. Expand the product.")}
	}
	return graph.Multiply(lhs, rhs), nil
}
