// Package graph implements the computation-graph IR for grid kernels.
//
// A graph is a tree of immutable nodes built bottom-up through constructor
// functions. The tree describes the value of a single output cell; the same
// tree is evaluated once per cell of the output grid.
package graph

// Op identifies the operation a node performs.
type Op uint8

// Supported operations.
const (
	OpElementFetch Op = iota
	OpAdd
	OpMultiply
	OpConstant
	OpReference
)

// String returns a human-readable name for the operation.
func (op Op) String() string {
	switch op {
	case OpElementFetch:
		return "fetch"
	case OpAdd:
		return "add"
	case OpMultiply:
		return "mul"
	case OpConstant:
		return "constant"
	case OpReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Reserved reference names resolving to the coordinates of the cell being computed.
const (
	GridRow = "GRID_ROW"
	GridCol = "GRID_COL"
)

// Kernel-source tokens the reserved references render to.
const (
	GridRowToken = "grid_row"
	GridColToken = "grid_col"
)

// Node is one node of the computation graph.
// Nodes are never mutated after construction, so a tree can be shared freely.
type Node struct {
	op    Op
	args  []*Node
	value float32
	name  string
}

// ElementFetch reads source[row][col].
func ElementFetch(source, row, col *Node) *Node {
	return &Node{op: OpElementFetch, args: []*Node{source, row, col}}
}

// Add returns left + right.
func Add(left, right *Node) *Node {
	return &Node{op: OpAdd, args: []*Node{left, right}}
}

// Multiply returns left * right.
func Multiply(left, right *Node) *Node {
	return &Node{op: OpMultiply, args: []*Node{left, right}}
}

// Constant returns a float literal.
func Constant(v float32) *Node {
	return &Node{op: OpConstant, value: v}
}

// Reference returns a symbolic reference to a kernel parameter or reserved token.
func Reference(name string) *Node {
	return &Node{op: OpReference, name: name}
}

// Row references the row coordinate of the current cell.
func Row() *Node {
	return Reference(GridRow)
}

// Col references the column coordinate of the current cell.
func Col() *Node {
	return Reference(GridCol)
}

// Op returns the node's operation.
func (n *Node) Op() Op {
	return n.op
}

// Children returns a copy of the node's operands.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.args))
	copy(out, n.args)
	return out
}

// Value returns the literal of a constant node.
func (n *Node) Value() float32 {
	return n.value
}

// Name returns the referenced name of a reference node.
func (n *Node) Name() string {
	return n.name
}

// References returns the distinct names referenced by the tree in first-seen order.
// Reserved grid coordinates are not included.
func (n *Node) References() []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(*Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		if node.op == OpReference && !isReserved(node.name) && !seen[node.name] {
			seen[node.name] = true
			names = append(names, node.name)
		}
		for _, arg := range node.args {
			walk(arg)
		}
	}
	walk(n)
	return names
}

func isReserved(name string) bool {
	return name == GridRow || name == GridCol
}
