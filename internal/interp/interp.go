// Package interp is a tree-walking interpreter for the type-checked AST,
// grounded on original_source/interp.py's Visitor-based evaluator. Where
// the teacher repo only ever compiles to a target (vslc has no
// interpreter at all), this package and the IR generator are siblings:
// both consume the same sema.Analyze-annotated *ast.Program and must agree
// on every type-correct program's observable behavior (spec.md §9's
// consistency requirement).
//
// Runtime storage is keyed by declaration identity (the *ast.VarDecl/
// *ast.Param/*ast.ArrayDecl pointer sema.Analyze already resolved onto
// VarLocation.Ref and FuncCall.Ref) rather than by name, so recursive
// calls and shadowed locals never collide the way a name-keyed map would.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"bminor/internal/ast"
	"bminor/internal/builtins"
	"bminor/internal/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// env is one runtime activation's variable bindings, chained to its
// enclosing scope the way original_source/interp.py chains a
// collections.ChainMap per block/call.
type env struct {
	parent *env
	vals   map[ast.Decl]interface{}
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vals: make(map[ast.Decl]interface{}, 8)}
}

func (e *env) define(d ast.Decl, v interface{}) {
	e.vals[d] = v
}

func (e *env) get(d ast.Decl) (interface{}, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vals[d]; ok {
			return v, true
		}
	}
	return nil, false
}

// set updates d's value in the nearest enclosing scope that already binds
// it, matching ChainMap assignment semantics (update in place, don't
// shadow). It reports false if d is unbound anywhere in the chain, which
// cannot happen for a sema-checked program.
func (e *env) set(d ast.Decl, v interface{}) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vals[d]; ok {
			cur.vals[d] = v
			return true
		}
	}
	return false
}

// RuntimeError is returned for failures only detectable at run time (array
// index out of range, integer division by zero), distinct from the
// diagnostics the earlier stages collect in a diag.Bag.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

func rtErrorf(line int, format string, args ...interface{}) error {
	return &RuntimeError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// signal reports whether a statement's execution fell through normally or
// unwound with a return value, the Go-idiomatic stand-in for
// original_source/interp.py's ReturnException.
type signal int

const (
	sigNone signal = iota
	sigReturn
)

// Interp holds the state shared across one Run: the global scope, the
// table of user-defined functions, and the I/O streams builtins.Call uses
// for read_integer/read_string and print lowers to.
type Interp struct {
	global *env
	funcs  map[string]*ast.FuncDecl
	out    io.Writer
	in     *bufio.Reader
}

// New creates an interpreter writing print output to out and reading
// read_integer/read_string input from in.
func New(out io.Writer, in io.Reader) *Interp {
	return &Interp{
		global: newEnv(nil),
		funcs:  make(map[string]*ast.FuncDecl, 8),
		out:    out,
		in:     bufio.NewReader(in),
	}
}

// ---------------------
// ----- functions -----
// ---------------------

// Run evaluates every top-level declaration in source order, then calls
// main() if the program defines one (original_source/interp.py's "Buscar y
// ejecutar main si existe"). It returns the value main() returned, or nil
// if the program defines no main.
func (it *Interp) Run(prog *ast.Program) (interface{}, error) {
	for _, d := range prog.Decls {
		switch dd := d.(type) {
		case *ast.FuncDecl:
			it.funcs[dd.Name] = dd
		case *ast.VarDecl:
			v, err := it.globalInit(dd.Init, dd.DeclaredType)
			if err != nil {
				return nil, err
			}
			it.global.define(dd, v)
		case *ast.ArrayDecl:
			v, err := it.globalArrayInit(dd)
			if err != nil {
				return nil, err
			}
			it.global.define(dd, v)
		}
	}

	main, ok := it.funcs["main"]
	if !ok {
		return nil, nil
	}
	return it.callFunc(main, nil)
}

func (it *Interp) globalInit(init ast.Expr, t ast.Type) (interface{}, error) {
	if init == nil {
		return zeroValue(t), nil
	}
	return it.eval(init, it.global)
}

func (it *Interp) globalArrayInit(d *ast.ArrayDecl) (interface{}, error) {
	if d.Init == nil {
		n, err := it.arraySize(d.ArrType, it.global)
		if err != nil {
			return nil, err
		}
		return zeroArray(d.ArrType.Elem, n), nil
	}
	return it.eval(d.Init, it.global)
}

func (it *Interp) arraySize(t *ast.ArrayType, e *env) (int, error) {
	if t.Size == nil {
		return 0, nil
	}
	v, err := it.eval(t.Size, e)
	if err != nil {
		return 0, err
	}
	return int(v.(int64)), nil
}

// zeroValue returns the type-appropriate zero value spec.md's storage
// model names for an uninitialized declaration.
func zeroValue(t ast.Type) interface{} {
	switch tt := t.(type) {
	case *ast.ArrayType:
		return zeroArray(tt.Elem, 0)
	case *ast.SimpleType:
		switch tt.Kind() {
		case ast.KindInteger:
			return int64(0)
		case ast.KindFloat:
			return float64(0)
		case ast.KindBoolean:
			return false
		case ast.KindChar:
			return rune(0)
		case ast.KindString:
			return ""
		}
	}
	return nil
}

func zeroArray(elem ast.Type, n int) []interface{} {
	arr := make([]interface{}, n)
	for i := range arr {
		arr[i] = zeroValue(elem)
	}
	return arr
}

func (it *Interp) callFunc(fd *ast.FuncDecl, args []interface{}) (interface{}, error) {
	fenv := newEnv(it.global)
	for i, p := range fd.Params {
		fenv.define(p, args[i])
	}
	val, sig, err := it.execBlock(fd.Body, fenv)
	if err != nil {
		return nil, err
	}
	if sig == sigReturn {
		return val, nil
	}
	return zeroValue(fd.RetType), nil
}

// ----------------------
// ----- statements -----
// ----------------------

func (it *Interp) execBlock(b *ast.BlockStmt, parent *env) (interface{}, signal, error) {
	e := newEnv(parent)
	for _, st := range b.Stmts {
		val, sig, err := it.execStmt(st, e)
		if err != nil || sig != sigNone {
			return val, sig, err
		}
	}
	return nil, sigNone, nil
}

func (it *Interp) execStmt(st ast.Stmt, e *env) (interface{}, signal, error) {
	switch ss := st.(type) {
	case *ast.BlockStmt:
		return it.execBlock(ss, e)
	case *ast.DeclStmt:
		return nil, sigNone, it.localDecl(ss.D, e)
	case *ast.ExprStmt:
		_, err := it.eval(ss.X, e)
		return nil, sigNone, err
	case *ast.PrintStmt:
		return nil, sigNone, it.print(ss, e)
	case *ast.ReturnStmt:
		if ss.Value == nil {
			return nil, sigReturn, nil
		}
		v, err := it.eval(ss.Value, e)
		return v, sigReturn, err
	case *ast.IfStmt:
		cond, err := it.eval(ss.Cond, e)
		if err != nil {
			return nil, sigNone, err
		}
		if cond.(bool) {
			return it.execStmt(ss.Then, e)
		}
		if ss.Else != nil {
			return it.execStmt(ss.Else, e)
		}
		return nil, sigNone, nil
	case *ast.WhileStmt:
		return it.execWhile(ss, e)
	case *ast.DoWhileStmt:
		return it.execDoWhile(ss, e)
	case *ast.ForStmt:
		return it.execFor(ss, e)
	}
	return nil, sigNone, fmt.Errorf("interp: unhandled statement %T", st)
}

func (it *Interp) localDecl(d ast.Decl, e *env) error {
	switch dd := d.(type) {
	case *ast.VarDecl:
		v, err := it.globalInitIn(dd.Init, dd.DeclaredType, e)
		if err != nil {
			return err
		}
		e.define(dd, v)
		return nil
	case *ast.ArrayDecl:
		if dd.Init != nil {
			v, err := it.eval(dd.Init, e)
			if err != nil {
				return err
			}
			e.define(dd, v)
			return nil
		}
		n, err := it.arraySize(dd.ArrType, e)
		if err != nil {
			return err
		}
		e.define(dd, zeroArray(dd.ArrType.Elem, n))
		return nil
	}
	return fmt.Errorf("interp: unhandled local declaration %T", d)
}

func (it *Interp) globalInitIn(init ast.Expr, t ast.Type, e *env) (interface{}, error) {
	if init == nil {
		return zeroValue(t), nil
	}
	return it.eval(init, e)
}

func (it *Interp) execWhile(w *ast.WhileStmt, e *env) (interface{}, signal, error) {
	for {
		cond, err := it.eval(w.Cond, e)
		if err != nil {
			return nil, sigNone, err
		}
		if !cond.(bool) {
			return nil, sigNone, nil
		}
		val, sig, err := it.execStmt(w.Body, e)
		if err != nil || sig != sigNone {
			return val, sig, err
		}
	}
}

func (it *Interp) execDoWhile(w *ast.DoWhileStmt, e *env) (interface{}, signal, error) {
	for {
		val, sig, err := it.execStmt(w.Body, e)
		if err != nil || sig != sigNone {
			return val, sig, err
		}
		cond, err := it.eval(w.Cond, e)
		if err != nil {
			return nil, sigNone, err
		}
		if !cond.(bool) {
			return nil, sigNone, nil
		}
	}
}

func (it *Interp) execFor(f *ast.ForStmt, e *env) (interface{}, signal, error) {
	fe := newEnv(e)
	if f.Init != nil {
		if _, _, err := it.execStmt(f.Init, fe); err != nil {
			return nil, sigNone, err
		}
	}
	for {
		if f.Cond != nil {
			cond, err := it.eval(f.Cond, fe)
			if err != nil {
				return nil, sigNone, err
			}
			if !cond.(bool) {
				return nil, sigNone, nil
			}
		}
		val, sig, err := it.execStmt(f.Body, fe)
		if err != nil || sig != sigNone {
			return val, sig, err
		}
		if f.Update != nil {
			if _, err := it.eval(f.Update, fe); err != nil {
				return nil, sigNone, err
			}
		}
	}
}

// print implements spec.md §9's resolved Open Question: each argument is
// written with no separator (original_source/interp.py's
// "print(value, end='')" loop has none), and exactly one trailing newline
// is appended once per print statement.
func (it *Interp) print(p *ast.PrintStmt, e *env) error {
	var sb strings.Builder
	for _, arg := range p.Args {
		v, err := it.eval(arg, e)
		if err != nil {
			return err
		}
		sb.WriteString(formatValue(v))
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(it.out, sb.String())
	return err
}

func formatValue(v interface{}) string {
	switch vv := v.(type) {
	case int64:
		return fmt.Sprintf("%d", vv)
	case float64:
		return fmt.Sprintf("%g", vv)
	case bool:
		return fmt.Sprintf("%t", vv)
	case rune:
		return string(vv)
	case string:
		return vv
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// -----------------------
// ----- expressions -----
// -----------------------

func (it *Interp) eval(ex ast.Expr, e *env) (interface{}, error) {
	switch ee := ex.(type) {
	case *ast.IntegerLit:
		return ee.Val, nil
	case *ast.FloatLit:
		return ee.Val, nil
	case *ast.BoolLit:
		return ee.Val, nil
	case *ast.CharLit:
		return ee.Val, nil
	case *ast.StringLit:
		return ee.Val, nil
	case *ast.ArrayLit:
		vals := make([]interface{}, len(ee.Elems))
		for i, el := range ee.Elems {
			v, err := it.eval(el, e)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	case *ast.VarLocation:
		v, ok := e.get(ee.Ref)
		if !ok {
			return nil, rtErrorf(ee.Line(), "undefined variable %q", ee.Name)
		}
		return v, nil
	case *ast.ArraySubscript:
		return it.evalSubscript(ee, e)
	case *ast.Assignment:
		return it.evalAssignment(ee, e)
	case *ast.BinOper:
		return it.evalBinOper(ee, e)
	case *ast.UnaryOper:
		return it.evalUnaryOper(ee, e)
	case *ast.IncDecExpr:
		return it.evalIncDec(ee, e)
	case *ast.FuncCall:
		return it.evalCall(ee, e)
	}
	return nil, fmt.Errorf("interp: unhandled expression %T", ex)
}

func (it *Interp) evalSubscript(sub *ast.ArraySubscript, e *env) (interface{}, error) {
	base, err := it.eval(sub.Base, e)
	if err != nil {
		return nil, err
	}
	idxV, err := it.eval(sub.Index, e)
	if err != nil {
		return nil, err
	}
	arr := base.([]interface{})
	idx := int(idxV.(int64))
	if idx < 0 || idx >= len(arr) {
		return nil, rtErrorf(sub.Line(), "array index %d out of range [0,%d)", idx, len(arr))
	}
	return arr[idx], nil
}

// lvalueSet stores v into an assignable location so both assignment and
// ++/-- share one path: a VarLocation writes back through its resolved
// decl, an ArraySubscript writes into the slice in place.
func (it *Interp) lvalueSet(target ast.Expr, e *env, v interface{}) error {
	switch t := target.(type) {
	case *ast.VarLocation:
		if !e.set(t.Ref, v) {
			return rtErrorf(t.Line(), "undefined variable %q", t.Name)
		}
		return nil
	case *ast.ArraySubscript:
		base, err := it.eval(t.Base, e)
		if err != nil {
			return err
		}
		idxV, err := it.eval(t.Index, e)
		if err != nil {
			return err
		}
		arr := base.([]interface{})
		idx := int(idxV.(int64))
		if idx < 0 || idx >= len(arr) {
			return rtErrorf(t.Line(), "array index %d out of range [0,%d)", idx, len(arr))
		}
		arr[idx] = v
		return nil
	}
	return rtErrorf(target.Line(), "not an assignable location")
}

func (it *Interp) lvalueGet(target ast.Expr, e *env) (interface{}, error) {
	return it.eval(target, e)
}

func (it *Interp) evalAssignment(a *ast.Assignment, e *env) (interface{}, error) {
	v, err := it.eval(a.Value, e)
	if err != nil {
		return nil, err
	}
	if err := it.lvalueSet(a.Target, e, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (it *Interp) evalIncDec(ie *ast.IncDecExpr, e *env) (interface{}, error) {
	old, err := it.lvalueGet(ie.X, e)
	if err != nil {
		return nil, err
	}
	var updated interface{}
	switch v := old.(type) {
	case int64:
		if ie.Op == ast.Inc {
			updated = v + 1
		} else {
			updated = v - 1
		}
	case float64:
		if ie.Op == ast.Inc {
			updated = v + 1
		} else {
			updated = v - 1
		}
	default:
		return nil, rtErrorf(ie.Line(), "'++'/'--' require a numeric operand")
	}
	if err := it.lvalueSet(ie.X, e, updated); err != nil {
		return nil, err
	}
	if ie.Prefix {
		return updated, nil
	}
	return old, nil
}

// evalBinOper follows original_source/interp.py's operator table, with
// short-circuit && / || returning the left operand when it short-circuits
// (spec.md §9's documented, benign contradiction: the type checker already
// guarantees both operands are boolean for any type-correct program).
func (it *Interp) evalBinOper(b *ast.BinOper, e *env) (interface{}, error) {
	left, err := it.eval(b.Left, e)
	if err != nil {
		return nil, err
	}
	if b.Op == token.OROR {
		if left.(bool) {
			return left, nil
		}
		return it.eval(b.Right, e)
	}
	if b.Op == token.ANDAND {
		if !left.(bool) {
			return left, nil
		}
		return it.eval(b.Right, e)
	}

	right, err := it.eval(b.Right, e)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case token.PLUS:
		if ls, ok := left.(string); ok {
			return ls + right.(string), nil
		}
		return numericOp(left, right, func(a, c int64) int64 { return a + c }, func(a, c float64) float64 { return a + c })
	case token.MINUS:
		return numericOp(left, right, func(a, c int64) int64 { return a - c }, func(a, c float64) float64 { return a - c })
	case token.STAR:
		return numericOp(left, right, func(a, c int64) int64 { return a * c }, func(a, c float64) float64 { return a * c })
	case token.SLASH:
		if r, ok := right.(int64); ok && r == 0 {
			return nil, rtErrorf(b.Line(), "integer division by zero")
		}
		return numericOp(left, right, func(a, c int64) int64 { return a / c }, func(a, c float64) float64 { return a / c })
	case token.PERCENT:
		if r, ok := right.(int64); ok && r == 0 {
			return nil, rtErrorf(b.Line(), "integer division by zero")
		}
		return left.(int64) % right.(int64), nil
	case token.CARET:
		return powOp(left, right), nil
	case token.EQ:
		return left == right, nil
	case token.NE:
		return left != right, nil
	case token.LT:
		return compare(left, right) < 0, nil
	case token.LE:
		return compare(left, right) <= 0, nil
	case token.GT:
		return compare(left, right) > 0, nil
	case token.GE:
		return compare(left, right) >= 0, nil
	}
	return nil, rtErrorf(b.Line(), "unhandled operator %s", b.Op)
}

func numericOp(l, r interface{}, iop func(a, b int64) int64, fop func(a, b float64) float64) (interface{}, error) {
	if lf, ok := l.(float64); ok {
		return fop(lf, r.(float64)), nil
	}
	if li, ok := l.(int64); ok {
		return iop(li, r.(int64)), nil
	}
	return nil, fmt.Errorf("interp: non-numeric operand %T", l)
}

// powOp lowers `^` via float64 exponentiation, round-tripping through a
// float for integer operands exactly as the IR generator does (spec.md
// §4.4: "integer exponent paths convert to and from double"), so the two
// backends agree on every type-correct program.
func powOp(l, r interface{}) interface{} {
	switch lv := l.(type) {
	case float64:
		return math.Pow(lv, r.(float64))
	case int64:
		return int64(math.Pow(float64(lv), float64(r.(int64))))
	}
	return nil
}

func compare(l, r interface{}) int {
	switch lv := l.(type) {
	case int64:
		rv := r.(int64)
		switch {
		case lv < rv:
			return -1
		case lv > rv:
			return 1
		default:
			return 0
		}
	case float64:
		rv := r.(float64)
		switch {
		case lv < rv:
			return -1
		case lv > rv:
			return 1
		default:
			return 0
		}
	case rune:
		rv := r.(rune)
		switch {
		case lv < rv:
			return -1
		case lv > rv:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func (it *Interp) evalUnaryOper(u *ast.UnaryOper, e *env) (interface{}, error) {
	v, err := it.eval(u.X, e)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case token.MINUS:
		if f, ok := v.(float64); ok {
			return -f, nil
		}
		return -v.(int64), nil
	case token.PLUS:
		return v, nil
	case token.NOT:
		return !v.(bool), nil
	}
	return nil, rtErrorf(u.Line(), "unhandled unary operator %s", u.Op)
}

func (it *Interp) evalCall(c *ast.FuncCall, e *env) (interface{}, error) {
	args := make([]interface{}, len(c.Args))
	for i, a := range c.Args {
		v, err := it.eval(a, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if c.Name == builtins.LengthName {
		return it.callLength(c, args[0])
	}
	if builtins.IsBuiltin(c.Name) {
		v, err := builtins.Call(c.Name, args, it.in)
		if err != nil {
			return nil, rtErrorf(c.Line(), "%s", err)
		}
		return v, nil
	}

	fd, ok := it.funcs[c.Name]
	if !ok {
		return nil, rtErrorf(c.Line(), "undefined function %q", c.Name)
	}
	return it.callFunc(fd, args)
}

// callLength implements spec.md §9's length polymorphism resolution:
// accept a string (Go byte length) or an array of any element type
// (slice length), matching original_source/builtins.py's runtime dispatch.
func (it *Interp) callLength(c *ast.FuncCall, arg interface{}) (interface{}, error) {
	switch v := arg.(type) {
	case string:
		return int64(len(v)), nil
	case []interface{}:
		return int64(len(v)), nil
	default:
		return nil, rtErrorf(c.Line(), "length() requires an array or string")
	}
}
