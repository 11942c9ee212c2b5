package kernel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/born-ml/gridkernel/internal/params"
)

var (
	bindingRe = regexp.MustCompile(`^@group\(0\) @binding\((\d+)\) var<storage, read> ([A-Za-z_][A-Za-z0-9_]*): (.+);$`)
	bufferRe  = regexp.MustCompile(`^array<array<f32, (\d+)>, (\d+)>$`)
)

// ParseFormals reads the parameter declarations of a source unit produced by
// EmitSource back into formals, in binding order.
func ParseFormals(source string) ([]params.Formal, error) {
	var formals []params.Formal
	for _, line := range strings.Split(source, "\n") {
		m := bindingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		slot, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid binding index %q", m[1])
		}
		if slot != len(formals) {
			return nil, fmt.Errorf("binding %d declared out of order (expected %d)", slot, len(formals))
		}
		f, err := parseFormal(m[2], m[3])
		if err != nil {
			return nil, err
		}
		formals = append(formals, f)
	}
	return formals, nil
}

func parseFormal(name, typ string) (params.Formal, error) {
	if typ == "f32" {
		return params.Formal{Name: name, Kind: params.Scalar}, nil
	}
	dims := bufferRe.FindStringSubmatch(typ)
	if dims == nil {
		return params.Formal{}, fmt.Errorf("unsupported type '%s' for '%s'", typ, name)
	}
	width, _ := strconv.Atoi(dims[1])
	height, _ := strconv.Atoi(dims[2])
	if width <= 0 || height <= 0 {
		return params.Formal{}, fmt.Errorf("array '%s' must have positive dimensions", name)
	}
	return params.Formal{Name: name, Kind: params.Buffer2D, Width: width, Height: height}, nil
}

// CheckFormalNames verifies that the declared formals carry the given names
// in order.
func CheckFormalNames(declared []params.Formal, names []string) error {
	if len(declared) != len(names) {
		return fmt.Errorf("source declares %d parameters, %d formal parameters given", len(declared), len(names))
	}
	for i, f := range declared {
		if f.Name != names[i] {
			return fmt.Errorf("binding %d is '%s', formal parameter %d is '%s'", i, f.Name, i, names[i])
		}
	}
	return nil
}

// CheckArgs verifies that args match formals element for element: same count,
// same kinds and, for buffers, the compiled shape.
func CheckArgs(formals []params.Formal, args []params.Value) error {
	if len(args) != len(formals) {
		return fmt.Errorf("kernel takes %d arguments, got %d", len(formals), len(args))
	}
	for i, f := range formals {
		a := args[i]
		if a.Kind != f.Kind {
			return fmt.Errorf("argument %d (%s): expected %s, got %s", i, f.Name, f.Kind, a.Kind)
		}
		if f.Kind != params.Buffer2D {
			continue
		}
		buf := a.Buffer
		if buf.Width != f.Width || buf.Height != f.Height || len(buf.Data) != f.Width*f.Height {
			return fmt.Errorf("argument %d (%s): expected %dx%d buffer, got %dx%d with %d elements",
				i, f.Name, f.Width, f.Height, buf.Width, buf.Height, len(buf.Data))
		}
	}
	return nil
}
