// Package builtins defines the seven built-in function signatures
// spec.md §4.3 injects into the global scope, and the runtime behavior
// spec.md §6's ABI table and original_source/builtins.py describe for
// them. The semantic analyzer uses the signatures; the interpreter uses
// the Go implementations; the IR generator instead declares the external
// ABI symbols from spec.md §6, since compiled code calls into the
// separate C runtime rather than this package.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"bminor/internal/ast"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CallError is returned by a builtin's Go implementation when it is
// invoked with the wrong arity or operand kind, mirroring
// original_source/builtins.py's CallError exception.
type CallError struct {
	msg string
}

func (e *CallError) Error() string { return e.msg }

func callErrorf(format string, args ...interface{}) error {
	return &CallError{msg: fmt.Sprintf(format, args...)}
}

// LengthName is the name of the length built-in. Its prototype below keeps
// the single array-of-integer parameter, but the analyzer and both backends
// special-case calls by this name to accept any array or a string
// (original_source/builtins.py's length() does exactly this at runtime).
const LengthName = "length"

// ---------------------
// ----- functions -----
// ---------------------

// Prototypes returns the FuncDecl prototype (Body == nil) for every
// built-in, in the fixed order spec.md §4.3 lists them.
func Prototypes() []*ast.FuncDecl {
	arrOfInt := &ast.ArrayType{Elem: ast.Integer}
	return []*ast.FuncDecl{
		proto("read_integer", ast.Integer),
		proto("read_string", ast.String),
		proto("sqrt", ast.Float, param("x", ast.Float)),
		proto("abs", ast.Float, param("x", ast.Float)),
		proto("max", ast.Float, param("a", ast.Float), param("b", ast.Float)),
		proto("min", ast.Float, param("a", ast.Float), param("b", ast.Float)),
		proto(LengthName, ast.Integer, param("arr", arrOfInt)),
	}
}

func proto(name string, ret ast.Type, params ...*ast.Param) *ast.FuncDecl {
	return &ast.FuncDecl{Name: name, RetType: ret, Params: params}
}

func param(name string, t ast.Type) *ast.Param {
	return &ast.Param{Name: name, DeclaredType: t}
}

// IsBuiltin reports whether name is one of the built-in functions.
func IsBuiltin(name string) bool {
	switch name {
	case "read_integer", "read_string", "sqrt", "abs", "max", "min", LengthName:
		return true
	}
	return false
}

// Call invokes the built-in named name against args, reading from r when a
// built-in needs input. Argument and return values use the interpreter's
// native Go representations (int64, float64, bool, rune, string). Arrays
// are not handled here: length is not implemented by Call and is handled
// by the caller, which knows the array's runtime representation.
func Call(name string, args []interface{}, r *bufio.Reader) (interface{}, error) {
	switch name {
	case "read_integer":
		if len(args) != 0 {
			return nil, callErrorf("read_integer() takes no arguments")
		}
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return nil, callErrorf("%q is not a valid integer", line)
		}
		return v, nil
	case "read_string":
		if len(args) != 0 {
			return nil, callErrorf("read_string() takes no arguments")
		}
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		return strings.TrimRight(line, "\n"), nil
	case "sqrt":
		v, err := oneFloat("sqrt", args)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, callErrorf("sqrt() cannot take the square root of a negative number")
		}
		return math.Sqrt(v), nil
	case "abs":
		v, err := oneFloat("abs", args)
		if err != nil {
			return nil, err
		}
		return math.Abs(v), nil
	case "max":
		a, b, err := twoFloats("max", args)
		if err != nil {
			return nil, err
		}
		return math.Max(a, b), nil
	case "min":
		a, b, err := twoFloats("min", args)
		if err != nil {
			return nil, err
		}
		return math.Min(a, b), nil
	default:
		return nil, callErrorf("unknown built-in %q", name)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}

func oneFloat(name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, callErrorf("%s() requires 1 argument, got %d", name, len(args))
	}
	return toFloat(name, args[0])
}

func twoFloats(name string, args []interface{}) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, callErrorf("%s() requires 2 arguments, got %d", name, len(args))
	}
	a, err := toFloat(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := toFloat(name, args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func toFloat(name string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, callErrorf("%s() requires a numeric argument, got %T", name, v)
	}
}
