package cpu

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/born-ml/gridkernel/internal/graph"
	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/params"
)

// binding is one kernel parameter declared by the source unit.
type binding struct {
	slot   int
	name   string
	kind   params.Kind
	width  int
	height int
}

var cellRe = regexp.MustCompile(`^fn ` + kernel.CellFunction + `\(` + graph.GridRowToken + `: u32, ` + graph.GridColToken + `: u32\) -> f32 \{$`)

// program is a parsed source unit.
type program struct {
	formals  []params.Formal
	bindings []binding
	cell     *expr
}

// parseProgram extracts the parameter bindings and the cell expression from a
// generated source unit and checks the bindings against formals.
func parseProgram(source string, formals []string) (*program, error) {
	declared, err := kernel.ParseFormals(source)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(source, "\n")
	cellBody := ""
	foundCell := false
	for i := 0; i < len(lines); i++ {
		if !cellRe.MatchString(strings.TrimSpace(lines[i])) {
			continue
		}
		if foundCell {
			return nil, fmt.Errorf("function '%s' redeclared", kernel.CellFunction)
		}
		body, err := cellReturn(lines[i+1:])
		if err != nil {
			return nil, err
		}
		foundCell = true
		cellBody = body
	}

	if !foundCell {
		return nil, fmt.Errorf("missing function '%s'", kernel.CellFunction)
	}
	if err := kernel.CheckFormalNames(declared, formals); err != nil {
		return nil, err
	}

	bindings := make([]binding, len(declared))
	for i, f := range declared {
		bindings[i] = binding{slot: i, name: f.Name, kind: f.Kind, width: f.Width, height: f.Height}
	}
	cell, err := parseCell(cellBody, bindings)
	if err != nil {
		return nil, err
	}
	return &program{formals: declared, bindings: bindings, cell: cell}, nil
}

// cellReturn returns the expression of the single return statement in a
// function body.
func cellReturn(body []string) (string, error) {
	var stmts []string
	for _, line := range body {
		line = strings.TrimSpace(line)
		if line == "}" {
			break
		}
		if line != "" {
			stmts = append(stmts, line)
		}
	}
	if len(stmts) != 1 || !strings.HasPrefix(stmts[0], "return ") || !strings.HasSuffix(stmts[0], ";") {
		return "", fmt.Errorf("function '%s' must consist of a single return statement", kernel.CellFunction)
	}
	return strings.TrimSuffix(strings.TrimPrefix(stmts[0], "return "), ";"), nil
}
